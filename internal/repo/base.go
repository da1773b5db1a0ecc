package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by repositories so queries carry the caller's context and
// run inside an enclosing transaction when bound to one.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// Bind switches the base to tx. A nil tx is a no-op.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx != nil {
		b.conn = tx
	}
	return b
}

// DB returns the connection scoped to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx != nil {
		return b.conn.WithContext(ctx)
	}
	return b.conn
}
