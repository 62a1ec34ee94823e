package store

import (
	"context"
	"errors"
	"fmt"
)

// Owned confines every operation on inner to documents belonging to uid.
// A document belongs to uid when its ownerField equals uid or when its id
// is uid (per-user singleton documents such as budgets and profiles).
// Queries must filter on ownerField == uid or address the uid document.
func Owned(inner Store, ownerField, uid string) Store {
	return &owned{inner: inner, field: ownerField, uid: uid}
}

type owned struct {
	inner Store
	field string
	uid   string
}

func (o *owned) deny(op string) error {
	return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
}

func (o *owned) owns(doc Document) bool {
	return o.uid != "" && (doc.ID == o.uid || doc.String(o.field) == o.uid)
}

func (o *owned) queryAllowed(q Query) bool {
	if o.uid == "" {
		return false
	}
	if q.DocID == o.uid {
		return true
	}
	for _, f := range q.Where {
		if f.Field == o.field && f.Value == o.uid {
			return true
		}
	}
	return false
}

func (o *owned) fieldsAllowed(fields map[string]any) bool {
	v, ok := fields[o.field]
	return !ok || v == o.uid
}

func (o *owned) Query(ctx context.Context, q Query) ([]Document, error) {
	if !o.queryAllowed(q) {
		return nil, o.deny("query " + q.Collection)
	}
	return o.inner.Query(ctx, q)
}

func (o *owned) Subscribe(ctx context.Context, q Query, onSnapshot func([]Document), onError func(error)) (Subscription, error) {
	if !o.queryAllowed(q) {
		return nil, o.deny("subscribe " + q.Collection)
	}
	return o.inner.Subscribe(ctx, q, onSnapshot, onError)
}

func (o *owned) Get(ctx context.Context, collection, id string) (Document, error) {
	doc, err := o.inner.Get(ctx, collection, id)
	if err != nil {
		return Document{}, err
	}
	if !o.owns(doc) {
		return Document{}, o.deny("get " + collection)
	}
	return doc, nil
}

func (o *owned) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if o.uid == "" || fields[o.field] != o.uid {
		return "", o.deny("create " + collection)
	}
	return o.inner.Create(ctx, collection, fields)
}

func (o *owned) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := o.Get(ctx, collection, id); err != nil {
		return err
	}
	if !o.fieldsAllowed(fields) {
		return o.deny("update " + collection)
	}
	return o.inner.Update(ctx, collection, id, fields)
}

func (o *owned) UpsertMerge(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := o.Get(ctx, collection, id)
	switch {
	case errors.Is(err, ErrNotFound):
		if id != o.uid && fields[o.field] != o.uid {
			return o.deny("upsert " + collection)
		}
	case err != nil:
		return err
	}
	if !o.fieldsAllowed(fields) {
		return o.deny("upsert " + collection)
	}
	return o.inner.UpsertMerge(ctx, collection, id, fields)
}

func (o *owned) Delete(ctx context.Context, collection, id string) error {
	if _, err := o.Get(ctx, collection, id); err != nil {
		return err
	}
	return o.inner.Delete(ctx, collection, id)
}
