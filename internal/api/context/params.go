package context

import (
	stdcontext "context"

	"github.com/julienschmidt/httprouter"
)

// RouteParam reads a named path parameter injected by the router wrapper.
func RouteParam(ctx stdcontext.Context, name string) string {
	if ps, ok := ctx.Value(Params).(httprouter.Params); ok {
		return ps.ByName(name)
	}
	return ""
}
