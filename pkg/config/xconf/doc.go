// Package xconf 提供基于 koanf 的配置加载、反序列化与热重载。
//
// # 特性
//
//   - 支持 YAML / JSON 两种格式，从文件路径按扩展名自动识别
//   - NewFromBytes 适配 K8s ConfigMap 等非文件来源
//   - Watch 基于 fsnotify 监视文件变更并防抖重载
//   - Settings 提供写锁协调器的类型化配置段及默认值/校验
//
// # 用法
//
//	cfg, err := xconf.New("/etc/app/config.yaml")
//	if err != nil {
//		return err
//	}
//	settings, err := xconf.LoadSettings(cfg)
package xconf
