// Package runmode 进程入口的运行模式选择。
package runmode

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRunMode 无法识别的运行模式
var ErrInvalidRunMode = errors.New("invalid run mode")

// Mode 运行模式
type Mode int

const (
	Default Mode = iota // 直接运行采集循环
	Main                // 采集节点上由 init 启动
	Init                // 操作端：远端启动
	Finish
	Update
	Copy
	Latest
)

var names = map[Mode]string{
	Default: "default",
	Main:    "main",
	Init:    "init",
	Finish:  "finish",
	Update:  "update",
	Copy:    "copy",
	Latest:  "latest",
}

func (m Mode) String() string {
	if s, ok := names[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

var synonyms = map[string]Mode{
	"":          Default,
	"main":      Main,
	"i":         Init,
	"init":      Init,
	"start":     Init,
	"f":         Finish,
	"finish":    Finish,
	"finished":  Finish,
	"final":     Finish,
	"fin":       Finish,
	"stop":      Finish,
	"interrupt": Finish,
	"u":         Update,
	"update":    Update,
	"c":         Copy,
	"copy":      Copy,
	"l":         Latest,
	"latest":    Latest,
}

// Parse 解析运行模式参数（大小写不敏感）
func Parse(arg string) (Mode, error) {
	if m, ok := synonyms[strings.ToLower(strings.TrimSpace(arg))]; ok {
		return m, nil
	}
	return Default, fmt.Errorf("%w: %q (want main, init, finish, update, copy, latest)", ErrInvalidRunMode, arg)
}

// Acquirer 运行采集循环
type Acquirer interface {
	Run(ctx context.Context) error
}

// Lifecycle 远程生命周期操作
type Lifecycle interface {
	Init(ctx context.Context) error
	Finish(ctx context.Context) error
	Copy(ctx context.Context) error
	Update(ctx context.Context) error
}

// Handlers 各模式的执行体，按需构造，只有被选中的模式才会调用对应的工厂
type Handlers struct {
	Acquirer  func() (Acquirer, error)
	Lifecycle func() (Lifecycle, error)
	Latest    func(ctx context.Context) error
}

// Dispatch 执行且只执行一个操作
func Dispatch(ctx context.Context, mode Mode, h Handlers) error {
	switch mode {
	case Default, Main:
		a, err := h.Acquirer()
		if err != nil {
			return err
		}
		return a.Run(ctx)
	case Init, Finish, Update, Copy:
		lc, err := h.Lifecycle()
		if err != nil {
			return err
		}
		switch mode {
		case Init:
			return lc.Init(ctx)
		case Finish:
			return lc.Finish(ctx)
		case Update:
			return lc.Update(ctx)
		default:
			return lc.Copy(ctx)
		}
	case Latest:
		return h.Latest(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidRunMode, mode)
	}
}
