package health

import (
	"net/http"

	"brincafacil/lib/api/response"

	"github.com/go-chi/render"
)

func Check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok("ok", nil))
	}
}
