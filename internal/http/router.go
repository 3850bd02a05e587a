package transporthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/http/handlers"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/middleware"
)

// Deps bundles feature handlers that implement handlers.Mountable. Admin
// mounts sit behind AdminAuth.
type Deps struct {
	Mounts    []handlers.Mountable
	Admin     []handlers.Mountable
	AdminAuth func(http.Handler) http.Handler
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.SetJSONContentType)

	// Mount each feature's routes into this router.
	for _, m := range d.Mounts {
		m.Mount(r)
	}

	if len(d.Admin) > 0 {
		r.Group(func(r chi.Router) {
			if d.AdminAuth != nil {
				r.Use(d.AdminAuth)
			}
			for _, m := range d.Admin {
				m.Mount(r)
			}
		})
	}

	return r
}
