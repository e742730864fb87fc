package reel

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// RunScript runs a JavaScript flip script against r. The script sees a global book
// object:
//
//	book.flipNext()  book.flipPrev()  book.goTo(n)
//	book.drag(x0, y0, x1, y1)  book.wait(ms)  book.capture()
//	book.page  book.pageCount  book.frames
//
// and log(...) for progress messages. Every action records frames as it runs. A failing
// action throws inside the script.
func RunScript(ctx context.Context, r *Recorder, src string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	vm := goja.New()
	if err := bind(vm, r); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	if _, err := vm.RunString(src); err != nil {
		if interrupted, ok := err.(*goja.InterruptedError); ok {
			if cause, ok := interrupted.Value().(error); ok {
				return cause
			}
			return context.Canceled
		}
		return fmt.Errorf("run script: %w", err)
	}
	return nil
}

func bind(vm *goja.Runtime, r *Recorder) error {
	must := func(err error) {
		if err != nil {
			panic(vm.NewGoError(err))
		}
	}
	arg := func(call goja.FunctionCall, i int) float64 {
		return call.Argument(i).ToFloat()
	}

	obj := vm.NewObject()
	methods := map[string]func(goja.FunctionCall) goja.Value{
		"flipNext": func(goja.FunctionCall) goja.Value {
			must(r.FlipNext())
			return goja.Undefined()
		},
		"flipPrev": func(goja.FunctionCall) goja.Value {
			must(r.FlipPrev())
			return goja.Undefined()
		},
		"goTo": func(call goja.FunctionCall) goja.Value {
			must(r.GoTo(int(call.Argument(0).ToInteger())))
			return goja.Undefined()
		},
		"drag": func(call goja.FunctionCall) goja.Value {
			must(r.Drag(arg(call, 0), arg(call, 1), arg(call, 2), arg(call, 3)))
			return goja.Undefined()
		},
		"wait": func(call goja.FunctionCall) goja.Value {
			must(r.Wait(time.Duration(call.Argument(0).ToInteger()) * time.Millisecond))
			return goja.Undefined()
		},
		"capture": func(goja.FunctionCall) goja.Value {
			must(r.Capture())
			return goja.Undefined()
		},
	}
	for name, fn := range methods {
		if err := obj.Set(name, fn); err != nil {
			return err
		}
	}

	getters := map[string]func() int{
		"page":      r.book.CurrentPageIndex,
		"pageCount": r.book.PageCount,
		"frames":    r.Frames,
	}
	for name, get := range getters {
		err := obj.DefineAccessorProperty(name,
			vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(get()) }),
			nil,
			goja.FLAG_FALSE,
			goja.FLAG_TRUE,
		)
		if err != nil {
			return err
		}
	}

	if err := vm.Set("book", obj); err != nil {
		return err
	}
	return vm.Set("log", func(call goja.FunctionCall) goja.Value {
		args := make([]any, 0, 2*len(call.Arguments))
		for i, a := range call.Arguments {
			args = append(args, fmt.Sprintf("arg%d", i), a.String())
		}
		r.log.Info("script", args...)
		return goja.Undefined()
	})
}
