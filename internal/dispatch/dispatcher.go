package dispatch

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/flowvana/flowlight/internal/search"
)

// MinSearchLength is the shortest trimmed input that triggers the
// free-text search.
const MinSearchLength = 2

// Key is a dropdown navigation key.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyEnter
	KeyEscape
)

// Dispatcher owns the slash-command state for one input. It is not safe
// for concurrent use; drive it from the UI event loop.
type Dispatcher struct {
	hook     *search.Hook
	debounce time.Duration
	logger   *zap.Logger

	buffer string
	caret  int
	state  State
	primed bool

	open   bool
	items  []*search.Space
	active int

	gen     uint64
	pending *Request
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithDebounce overrides the free-text search debounce.
func WithDebounce(delay time.Duration) Option {
	return func(d *Dispatcher) { d.debounce = delay }
}

// New returns a dispatcher over hook's spaces.
func New(hook *search.Hook, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		hook:     hook,
		debounce: time.Duration(hook.DebounceMs) * time.Millisecond,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current classification.
func (d *Dispatcher) State() State { return d.state }

// Dropdown reports the picker's items, highlighted index and visibility.
func (d *Dispatcher) Dropdown() ([]*search.Space, int, bool) {
	return d.items, d.active, d.open
}

// Current reports whether gen is the latest outstanding request. Used to
// fire debounced requests only if nothing superseded them.
func (d *Dispatcher) Current(gen uint64) bool {
	return d.pending != nil && d.pending.Gen == gen && d.gen == gen
}

// Input reclassifies the buffer and returns the effects of any change.
func (d *Dispatcher) Input(buffer string, caret int) []Effect {
	d.buffer = buffer
	d.caret = caret
	next := Classify(buffer, caret)
	if d.primed && next == d.state {
		return nil
	}
	prev := d.state
	d.state = next
	d.primed = true

	if prev.Mode != next.Mode {
		d.logger.Debug("mode change", zap.Stringer("from", prev.Mode), zap.Stringer("to", next.Mode))
	}

	switch next.Mode {
	case ModePicking:
		return d.picking(next)
	case ModeQuerying:
		return d.querying(next)
	default:
		return d.idle(next)
	}
}

func (d *Dispatcher) idle(st State) []Effect {
	var effects []Effect
	if d.open {
		effects = append(effects, d.closeDropdown())
	}

	query := strings.TrimSpace(st.Text)
	if utf8.RuneCountInString(query) < MinSearchLength {
		d.supersede()
		return append(effects, HideResults{}, ShowSuggestions{})
	}

	effects = append(effects, HideSuggestions{})
	return d.issue(effects, Request{Kind: FlowSearch, Query: query, Delay: d.debounce})
}

func (d *Dispatcher) picking(st State) []Effect {
	d.supersede()
	effects := []Effect{HideSuggestions{}, HideResults{}}

	d.items = d.hook.MatchSpaces(st.Filter)
	d.active = 0
	if len(d.items) == 0 {
		if d.open {
			effects = append(effects, d.closeDropdown())
		}
		return effects
	}
	d.open = true
	return append(effects, OpenDropdown{Items: d.items, Active: 0})
}

func (d *Dispatcher) querying(st State) []Effect {
	effects := []Effect{HideSuggestions{}}
	if d.open {
		effects = append(effects, d.closeDropdown())
	}

	if st.Query == "" {
		d.supersede()
		return append(effects, HideResults{})
	}

	space, query := d.resolveSpace(st)
	if space == nil || query == "" {
		d.supersede()
		return append(effects, HideResults{})
	}

	return d.issue(effects, Request{Kind: SpaceQuery, Space: space, Query: query})
}

// resolveSpace prefers the selected space when it is still one of the
// hook's spaces and the buffer names it; otherwise it looks the name up
// and remembers the match as selected.
func (d *Dispatcher) resolveSpace(st State) (*search.Space, string) {
	if sel := d.hook.SelectedSpace(); sel != nil && d.hook.Contains(sel) {
		if q, ok := cutSpacePrefix(d.buffer, sel.Name()); ok {
			return sel, q
		}
		if sel.ID() != "" {
			if q, ok := cutSpacePrefix(d.buffer, sel.ID()); ok {
				return sel, q
			}
		}
	}
	if s := d.hook.FindSpace(st.SpaceName); s != nil {
		d.hook.SetSelectedSpace(s)
		return s, st.Query
	}
	return nil, ""
}

// cutSpacePrefix strips "/<name>" from buffer when it is followed by
// whitespace or the end of the buffer, and returns the trimmed rest.
func cutSpacePrefix(buffer, name string) (string, bool) {
	prefix := "/" + name
	if len(buffer) < len(prefix) || !strings.EqualFold(buffer[:len(prefix)], prefix) {
		return "", false
	}
	rest := buffer[len(prefix):]
	if rest != "" {
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsSpace(r) {
			return "", false
		}
	}
	return strings.TrimSpace(rest), true
}

func (d *Dispatcher) issue(effects []Effect, req Request) []Effect {
	if req.same(d.pending) {
		return effects
	}
	d.gen++
	req.Gen = d.gen
	d.pending = &req
	if req.Kind == SpaceQuery {
		effects = append(effects, ShowLoading{Space: req.Space})
	}
	d.logger.Debug("request issued",
		zap.Uint64("gen", req.Gen),
		zap.Stringer("kind", req.Kind),
		zap.String("query", req.Query))
	return append(effects, req)
}

// supersede invalidates any outstanding request.
func (d *Dispatcher) supersede() {
	if d.pending == nil {
		return
	}
	d.gen++
	d.pending = nil
}

func (d *Dispatcher) closeDropdown() Effect {
	d.open = false
	d.items = nil
	d.active = 0
	return CloseDropdown{}
}

// Complete applies the outcome of request gen. Outcomes of superseded
// requests are dropped.
func (d *Dispatcher) Complete(gen uint64, results []search.Result, err error) []Effect {
	if !d.Current(gen) {
		d.logger.Debug("dropping stale results", zap.Uint64("gen", gen), zap.Uint64("current", d.gen))
		return nil
	}
	d.pending = nil
	if err != nil || len(results) == 0 {
		if err != nil {
			d.logger.Debug("request returned no results", zap.Uint64("gen", gen), zap.Error(err))
		}
		return []Effect{HideResults{}}
	}
	return []Effect{ShowResults{Results: results}}
}

// Key handles dropdown navigation. It reports false when the dropdown is
// closed so the caller can treat the key normally.
func (d *Dispatcher) Key(k Key) (bool, []Effect) {
	if !d.open || len(d.items) == 0 {
		return false, nil
	}
	n := len(d.items)
	switch k {
	case KeyUp:
		d.active = (d.active - 1 + n) % n
		return true, []Effect{SetActive{Index: d.active}}
	case KeyDown:
		d.active = (d.active + 1) % n
		return true, []Effect{SetActive{Index: d.active}}
	case KeyEnter:
		return true, d.Commit(d.active)
	case KeyEscape:
		return true, []Effect{d.closeDropdown()}
	}
	return false, nil
}

// Commit picks dropdown item index: the slash token becomes "/<name> ",
// the caret moves past it, the space becomes selected and the dropdown
// closes.
func (d *Dispatcher) Commit(index int) []Effect {
	if !d.open || index < 0 || index >= len(d.items) || d.state.Mode != ModePicking {
		return nil
	}
	space := d.items[index]
	st := d.state

	runes := []rune(d.buffer)
	start, end := clamp(st.TokenStart, len(runes)), clamp(st.TokenEnd, len(runes))
	insert := []rune("/" + space.Name() + " ")

	text := string(runes[:start]) + string(insert) + string(runes[end:])
	caret := start + len(insert)

	d.hook.SetSelectedSpace(space)
	closed := d.closeDropdown()

	d.buffer = text
	d.caret = caret
	d.state = Classify(text, caret)
	d.logger.Debug("space selected", zap.String("space", space.Name()))

	return []Effect{SetBuffer{Text: text, Caret: caret}, closed}
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
