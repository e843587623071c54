package xstack

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// ErrGoroutineNotFound 目标 goroutine 不在当前堆栈转储中（通常已退出）。
var ErrGoroutineNotFound = errors.New("xstack: goroutine not found")

const (
	// headerPrefix 运行时堆栈转储的首行前缀，如 "goroutine 18 [running]:"。
	headerPrefix = "goroutine "

	initialBufSize = 4 << 10  // 单 goroutine 初始缓冲
	maxSingleSize  = 64 << 10 // 单 goroutine 上限
	initialAllSize = 256 << 10
	maxAllSize     = 16 << 20 // 全量转储上限
)

var singlePool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialBufSize)
		return &buf
	},
}

// ID 返回当前 goroutine 的运行时编号。
//
// 通过解析 runtime.Stack 首行获得。解析失败返回 0（运行时格式
// 自 Go 1.0 起未变更，实际不会发生）。
func ID() uint64 {
	bufp, ok := singlePool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialBufSize)
		bufp = &buf
	}
	defer singlePool.Put(bufp)

	n := runtime.Stack(*bufp, false)
	return parseHeaderID(string((*bufp)[:n]))
}

// CaptureCurrent 返回当前 goroutine 的调用栈文本。
func CaptureCurrent() string {
	bufp, ok := singlePool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialBufSize)
		bufp = &buf
	}

	buf := *bufp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxSingleSize {
		buf = make([]byte, min(len(buf)*2, maxSingleSize))
		n = runtime.Stack(buf, false)
	}

	s := string(buf[:n])
	singlePool.Put(bufp)
	return s
}

// Capture 返回编号为 id 的 goroutine 的调用栈文本。
//
// 基于 runtime.Stack 的全量转储扫描，开销与存活 goroutine 数成正比。
// 目标 goroutine 已退出或转储超出 16MB 上限仍被截断时返回
// ErrGoroutineNotFound。
func Capture(id uint64) (string, error) {
	buf := make([]byte, initialAllSize)
	n := runtime.Stack(buf, true)
	for n == len(buf) && len(buf) < maxAllSize {
		buf = make([]byte, min(len(buf)*2, maxAllSize))
		n = runtime.Stack(buf, true)
	}

	want := headerPrefix + strconv.FormatUint(id, 10) + " "
	for _, block := range strings.Split(string(buf[:n]), "\n\n") {
		if strings.HasPrefix(block, want) {
			return block, nil
		}
	}
	return "", fmt.Errorf("%w: goroutine %d", ErrGoroutineNotFound, id)
}

// parseHeaderID 从 "goroutine N [state]:" 首行解析出 N。
func parseHeaderID(dump string) uint64 {
	rest, ok := strings.CutPrefix(dump, headerPrefix)
	if !ok {
		return 0
	}
	end := strings.IndexByte(rest, ' ')
	if end <= 0 {
		return 0
	}
	id, err := strconv.ParseUint(rest[:end], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
