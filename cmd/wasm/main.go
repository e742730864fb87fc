//go:build js && wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"
	"time"

	"github.com/pageflip/pageflip/internal/book"
	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/gesture"
	"github.com/pageflip/pageflip/internal/manifest"
	"github.com/pageflip/pageflip/internal/settings"
)

var (
	bk        *book.Book
	container = &book.Size{}
	last      string
)

func main() {
	api := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	api.Set("create", js.FuncOf(create))
	api.Set("load", js.FuncOf(load))
	api.Set("next", js.FuncOf(next))
	api.Set("previous", js.FuncOf(previous))
	api.Set("goTo", js.FuncOf(goTo))
	api.Set("flipNext", js.FuncOf(flipNext))
	api.Set("flipPrev", js.FuncOf(flipPrev))
	api.Set("flipTo", js.FuncOf(flipTo))
	api.Set("pointerDown", js.FuncOf(pointer(func(ev gesture.Event) gesture.Result { return bk.PointerDown(ev) })))
	api.Set("pointerMove", js.FuncOf(pointer(func(ev gesture.Event) gesture.Result { return bk.PointerMove(ev) })))
	api.Set("pointerUp", js.FuncOf(pointer(func(ev gesture.Event) gesture.Result { return bk.PointerUp(ev) })))
	api.Set("pointerCancel", js.FuncOf(pointerCancel))
	api.Set("pointerHover", js.FuncOf(pointerHover))
	api.Set("resize", js.FuncOf(resize))
	api.Set("tick", js.FuncOf(tick))
	api.Set("on", js.FuncOf(on))
	api.Set("destroy", js.FuncOf(destroy))

	// --- Queries (frontend ← backend) ---
	api.Set("frame", js.FuncOf(frame))
	api.Set("getState", js.FuncOf(getState))

	js.Global().Set("pageflip", api)
	js.Global().Set("pageflipWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loaded() bool { return bk != nil && !bk.Destroyed() }

// --- Command Handlers ---

// create(manifestJSON, width, height) builds a book from a JSON manifest laid out in a
// width x height container.
func create(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "usage: create(manifestJSON, width, height)"})
	}
	m, err := manifest.Decode(strings.NewReader(args[0].String()), settings.FormatJSON)
	if err != nil {
		return result(err)
	}
	if bk != nil {
		bk.Destroy()
	}
	container.Width, container.Height = args[1].Float(), args[2].Float()
	last = ""

	b, err := book.New(container, m.Settings)
	if err != nil {
		return result(err)
	}
	if err := b.LoadPages(m.Sources(), m.BlankHandle()); err != nil {
		return result(err)
	}
	bk = b
	return result(nil)
}

// load(manifestJSON) replaces the pages of the current book. Settings stay as created.
func load(this js.Value, args []js.Value) interface{} {
	if !loaded() || len(args) < 1 {
		return result(book.ErrNotLoaded)
	}
	m, err := manifest.Decode(strings.NewReader(args[0].String()), settings.FormatJSON)
	if err != nil {
		return result(err)
	}
	return result(bk.LoadPages(m.Sources(), m.BlankHandle()))
}

func next(this js.Value, args []js.Value) interface{} {
	if !loaded() {
		return result(book.ErrNotLoaded)
	}
	return result(bk.Next())
}

func previous(this js.Value, args []js.Value) interface{} {
	if !loaded() {
		return result(book.ErrNotLoaded)
	}
	return result(bk.Previous())
}

func goTo(this js.Value, args []js.Value) interface{} {
	if !loaded() || len(args) < 1 {
		return result(book.ErrNotLoaded)
	}
	return result(bk.GoTo(args[0].Int()))
}

// corner reads an optional "top" / "bottom" argument.
func corner(args []js.Value, i int) geom.Corner {
	if len(args) > i && args[i].Type() == js.TypeString && args[i].String() == "bottom" {
		return geom.CornerBottom
	}
	return geom.CornerTop
}

func flipNext(this js.Value, args []js.Value) interface{} {
	if !loaded() {
		return result(book.ErrNotLoaded)
	}
	return result(bk.FlipNext(corner(args, 0)))
}

func flipPrev(this js.Value, args []js.Value) interface{} {
	if !loaded() {
		return result(book.ErrNotLoaded)
	}
	return result(bk.FlipPrev(corner(args, 0)))
}

func flipTo(this js.Value, args []js.Value) interface{} {
	if !loaded() || len(args) < 1 {
		return result(book.ErrNotLoaded)
	}
	return result(bk.FlipTo(args[0].Int(), corner(args, 1)))
}

func gestureResult(res gesture.Result) interface{} {
	return js.ValueOf(map[string]interface{}{
		"kind":           res.Kind.String(),
		"preventDefault": res.PreventDefault,
	})
}

// pointer adapts a pointer handler to (x, y, touch, targetTag).
func pointer(fn func(gesture.Event) gesture.Result) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if !loaded() || len(args) < 2 {
			return gestureResult(gesture.Result{})
		}
		ev := gesture.Event{Pos: geom.Pt(args[0].Float(), args[1].Float()), Time: time.Now()}
		if len(args) > 2 {
			ev.Touch = args[2].Truthy()
		}
		if len(args) > 3 && args[3].Type() == js.TypeString {
			ev.Target = gesture.Element(strings.ToLower(args[3].String()))
		}
		return gestureResult(fn(ev))
	}
}

func pointerCancel(this js.Value, args []js.Value) interface{} {
	if !loaded() {
		return gestureResult(gesture.Result{})
	}
	return gestureResult(bk.PointerCancel())
}

func pointerHover(this js.Value, args []js.Value) interface{} {
	if !loaded() || len(args) < 2 {
		return gestureResult(gesture.Result{})
	}
	return gestureResult(bk.PointerHover(geom.Pt(args[0].Float(), args[1].Float())))
}

func resize(this js.Value, args []js.Value) interface{} {
	if !loaded() || len(args) < 2 {
		return result(book.ErrNotLoaded)
	}
	container.Width, container.Height = args[0].Float(), args[1].Float()
	return result(bk.Resize())
}

// tick advances animations and reports whether the frame changed since the last call.
func tick(this js.Value, args []js.Value) interface{} {
	if !loaded() {
		return js.ValueOf(false)
	}
	if err := bk.Tick(time.Now()); err != nil {
		return js.ValueOf(false)
	}
	commands, err := bk.Commands()
	if err != nil || commands == last {
		return js.ValueOf(false)
	}
	last = commands
	return js.ValueOf(true)
}

// on(event, callback) subscribes callback to a book event. The callback receives the event
// as JSON. It returns an unsubscribe function.
func on(this js.Value, args []js.Value) interface{} {
	if !loaded() || len(args) < 2 || args[1].Type() != js.TypeFunction {
		return js.Undefined()
	}
	cb := args[1]
	unsubscribe := bk.On(book.Event(args[0].String()), func(e book.EventData) {
		data, err := json.Marshal(e)
		if err != nil {
			return
		}
		cb.Invoke(string(data))
	})

	var release js.Func
	release = js.FuncOf(func(js.Value, []js.Value) interface{} {
		unsubscribe()
		release.Release()
		return nil
	})
	return release
}

func destroy(this js.Value, args []js.Value) interface{} {
	if bk != nil {
		bk.Destroy()
		bk = nil
	}
	return nil
}

// --- Query Handlers ---

func frame(this js.Value, args []js.Value) interface{} {
	if !loaded() {
		return js.ValueOf("[]")
	}
	commands, err := bk.Commands()
	if err != nil {
		return js.ValueOf("[]")
	}
	last = commands
	return js.ValueOf(commands)
}

func getState(this js.Value, args []js.Value) interface{} {
	if !loaded() {
		return js.ValueOf("{}")
	}
	data, _ := json.Marshal(map[string]interface{}{
		"page":      bk.CurrentPageIndex(),
		"pageCount": bk.PageCount(),
		"mode":      bk.OrientationMode(),
		"state":     bk.State(),
		"progress":  bk.FlipProgress(),
		"bounds":    bk.Bounds(),
	})
	return js.ValueOf(string(data))
}
