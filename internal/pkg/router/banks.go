package router

import (
	"fmt"
	"strconv"

	"midideck/internal/pkg/logger"
	"midideck/internal/pkg/prefs"
)

const banksDoc = "banks"

// DefaultBank is active for any application without an explicit selection.
const DefaultBank = "1"

// Banks owns the active bank context: the per-application bank selection,
// persisted separately from the bindings themselves.
type Banks struct {
	store  *prefs.Store
	max    int
	notify func(title, message string)
}

func NewBanks(store *prefs.Store, max int, notify func(title, message string)) *Banks {
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Banks{store: store, max: max, notify: notify}
}

func (b *Banks) all() map[string]string {
	var m map[string]string
	if err := b.store.Unmarshal(banksDoc, &m); err != nil || m == nil {
		return map[string]string{}
	}
	return m
}

// Active returns the selected bank for an application, defaulting to "1".
func (b *Banks) Active(app string) string {
	if bank, ok := b.all()[app]; ok && bank != "" {
		return bank
	}
	return DefaultBank
}

// Select writes the active bank for an application and announces the change.
// Selecting the already-active bank is a no-op apart from the notification.
func (b *Banks) Select(app, bank string) error {
	n, err := strconv.Atoi(bank)
	if err != nil || n < 1 || n > b.max {
		return fmt.Errorf("invalid bank %q (1-%d)", bank, b.max)
	}

	m := b.all()
	m[app] = bank
	if err := b.store.SetDocument(banksDoc, m); err != nil {
		return err
	}

	log.Info(fmt.Sprintf("bank %s selected for %s", bank, app), logger.Action)
	b.notify("MIDI Bank", fmt.Sprintf("Bank %s", bank))
	return nil
}

// Next cycles to the following bank, wrapping back to 1 after the last one.
func (b *Banks) Next(app string) error {
	n, _ := strconv.Atoi(b.Active(app))
	n++
	if n > b.max {
		n = 1
	}
	return b.Select(app, strconv.Itoa(n))
}

// Previous cycles to the preceding bank, wrapping to the last one below 1.
func (b *Banks) Previous(app string) error {
	n, _ := strconv.Atoi(b.Active(app))
	n--
	if n < 1 {
		n = b.max
	}
	return b.Select(app, strconv.Itoa(n))
}
