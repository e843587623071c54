package xid

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"net/netip"
	"os"
	"strconv"
)

// EnvMachineID 直接指定机器 ID 的环境变量（0-65535）。
const EnvMachineID = "XID_MACHINE_ID"

// ErrNoMachineID 所有机器 ID 获取策略均失败。
var ErrNoMachineID = errors.New("xid: unable to determine machine id")

// DefaultMachineID 按优先级获取机器 ID：
//
//  1. XID_MACHINE_ID 环境变量（显式分配，唯一可控的方式）
//  2. os.Hostname() 的 FNV 哈希低 16 位
//  3. 私有 IPv4 地址的低 16 位
//
// 哈希与 IP 策略存在碰撞可能，多节点部署建议显式设置 XID_MACHINE_ID。
func DefaultMachineID() (uint16, error) {
	if s := os.Getenv(EnvMachineID); s != "" {
		id, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("xid: invalid %s value %q: %w", EnvMachineID, s, err)
		}
		return uint16(id), nil
	}

	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hashToMachineID(hostname), nil
	}

	return machineIDFromPrivateIP()
}

func hashToMachineID(s string) uint16 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return uint16(h.Sum32())
}

func machineIDFromPrivateIP() (uint16, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoMachineID, err)
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		if nip, ok := netip.AddrFromSlice(ip4); ok && nip.IsPrivate() {
			return uint16(ip4[2])<<8 | uint16(ip4[3]), nil
		}
	}
	return 0, fmt.Errorf("%w: no private IPv4 address", ErrNoMachineID)
}
