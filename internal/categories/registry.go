// Package categories keeps the two-tier category set: a fixed builtin
// taxonomy and user-defined entries persisted separately from transactions.
// A transaction's category is a weak reference; resolving an unknown key
// degrades to a generic fallback instead of failing.
package categories

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/log"
)

// CustomStore persists user-defined categories per transaction type.
type CustomStore interface {
	LoadCustom(ctx context.Context) (map[core.TransactionType][]core.Category, error)
	SaveCustom(ctx context.Context, custom map[core.TransactionType][]core.Category) error
}

// Registry resolves category keys and manages the user-defined tier.
type Registry struct {
	mu     sync.Mutex
	store  CustomStore
	logger *log.Logger
	custom map[core.TransactionType][]core.Category
}

var builtin = map[core.TransactionType][]core.Category{
	core.Income: {
		{Key: "salary", Name: "Salário", Icon: "fas fa-briefcase", Builtin: true},
		{Key: "freelance", Name: "Freelance", Icon: "fas fa-laptop", Builtin: true},
		{Key: "investment", Name: "Investimentos", Icon: "fas fa-chart-line", Builtin: true},
		{Key: "bonus", Name: "Bônus", Icon: "fas fa-gift", Builtin: true},
		{Key: "other-income", Name: "Outros", Icon: "fas fa-plus-circle", Builtin: true},
	},
	core.Expense: {
		{Key: "food", Name: "Alimentação", Icon: "fas fa-utensils", Builtin: true},
		{Key: "transport", Name: "Transporte", Icon: "fas fa-car", Builtin: true},
		{Key: "entertainment", Name: "Entretenimento", Icon: "fas fa-film", Builtin: true},
		{Key: "health", Name: "Saúde", Icon: "fas fa-heartbeat", Builtin: true},
		{Key: "education", Name: "Educação", Icon: "fas fa-graduation-cap", Builtin: true},
		{Key: "shopping", Name: "Compras", Icon: "fas fa-shopping-bag", Builtin: true},
		{Key: "bills", Name: "Contas", Icon: "fas fa-file-invoice", Builtin: true},
		{Key: "rent", Name: "Aluguel", Icon: "fas fa-home", Builtin: true},
		{Key: "other-expense", Name: "Outros", Icon: "fas fa-minus-circle", Builtin: true},
	},
}

// Fallback is what Resolve returns for keys no tier knows about.
var Fallback = core.Category{Key: "unknown", Name: "Sem categoria", Icon: "fas fa-question-circle"}

// NewRegistry loads the custom tier from the store. A load failure starts
// with builtins only and logs a warning.
func NewRegistry(ctx context.Context, store CustomStore, logger *log.Logger) *Registry {
	r := &Registry{
		store:  store,
		logger: logger.WithComponent(log.ComponentBackend),
		custom: make(map[core.TransactionType][]core.Category),
	}
	if store != nil {
		custom, err := store.LoadCustom(ctx)
		if err != nil {
			r.logger.Warn("Could not load custom categories", log.FieldError, err)
		} else if custom != nil {
			r.custom = custom
		}
	}
	return r
}

// Resolve returns the category for key, searching builtins then the custom
// tier, falling back to a generic label for orphaned keys.
func (r *Registry) Resolve(key string) core.Category {
	for _, cats := range builtin {
		for _, c := range cats {
			if c.Key == key {
				return c
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cats := range r.custom {
		for _, c := range cats {
			if c.Key == key {
				return c
			}
		}
	}
	return Fallback
}

// All returns the builtin and custom categories for one type, builtins
// first.
func (r *Registry) All(typ core.TransactionType) []core.Category {
	out := append([]core.Category(nil), builtin[typ]...)

	r.mu.Lock()
	defer r.mu.Unlock()
	return append(out, r.custom[typ]...)
}

// AddCustom registers a user-defined category. Keys must be unique across
// both tiers for the given type.
func (r *Registry) AddCustom(ctx context.Context, typ core.TransactionType, key, name string) (core.Category, error) {
	if !typ.IsValid() {
		return core.Category{}, fmt.Errorf("invalid transaction type %q", typ)
	}
	key = strings.TrimSpace(key)
	name = strings.TrimSpace(name)
	if key == "" || name == "" {
		return core.Category{}, fmt.Errorf("category key and name are required")
	}

	for _, c := range builtin[typ] {
		if c.Key == key {
			return core.Category{}, fmt.Errorf("category %q already exists", key)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.custom[typ] {
		if c.Key == key {
			return core.Category{}, fmt.Errorf("category %q already exists", key)
		}
	}

	cat := core.Category{Key: key, Name: name, Icon: "fas fa-tag"}
	r.custom[typ] = append(r.custom[typ], cat)
	if err := r.persistLocked(ctx); err != nil {
		return cat, err
	}
	return cat, nil
}

// RemoveCustom deletes a user-defined category. Builtins cannot be removed,
// and transactions still referencing the key are left alone: they resolve
// to the fallback from then on.
func (r *Registry) RemoveCustom(ctx context.Context, typ core.TransactionType, key string) error {
	for _, c := range builtin[typ] {
		if c.Key == key {
			return fmt.Errorf("category %q is builtin and cannot be removed", key)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cats := r.custom[typ]
	for i, c := range cats {
		if c.Key == key {
			r.custom[typ] = append(cats[:i], cats[i+1:]...)
			return r.persistLocked(ctx)
		}
	}
	return fmt.Errorf("category %q not found", key)
}

func (r *Registry) persistLocked(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.SaveCustom(ctx, r.custom); err != nil {
		r.logger.WarnContext(ctx, "Could not persist custom categories", log.FieldError, err)
		return &core.PersistenceError{Op: "save_categories", Err: err}
	}
	return nil
}
