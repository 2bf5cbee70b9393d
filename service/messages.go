// Package service exposes the store models over rpc. Each method takes a
// request whose data union must carry exactly the variant the method
// expects, and answers with the accumulated results plus, on success, the
// matching response variant.
package service

import (
	"github.com/jasonknight/space-mmo-sub002/result"
	"github.com/jasonknight/space-mmo-sub002/store"
)

// Version is reported by describe.
const Version = "1.0.0"

// ListRequest pages through records. Search is matched with LIKE where the
// domain has searchable columns.
type ListRequest struct {
	Page    int    `msgpack:"page" json:"page"`
	PerPage int    `msgpack:"per_page" json:"per_page"`
	Search  string `msgpack:"search,omitempty" json:"search,omitempty"`
}

func (l *ListRequest) page() store.Page {
	return store.Page{Page: l.Page, PerPage: l.PerPage}
}

// Deleted acknowledges a destroy.
type Deleted struct {
	ID int64 `msgpack:"id" json:"id"`
}

type variant struct {
	name string
	set  bool
}

func setNames(vs ...variant) []string {
	var out []string
	for _, v := range vs {
		if v.set {
			out = append(out, v.name)
		}
	}
	return out
}

// expect fails with DB_INVALID_DATA unless populated is exactly {want}.
func expect(populated []string, want string) *result.Result {
	if len(populated) == 1 && populated[0] == want {
		return nil
	}
	r := result.Failf(result.DBInvalidData, "expected request data %q, got %v", want, populated)
	return &r
}

func one(r result.Result) []result.Result { return []result.Result{r} }
