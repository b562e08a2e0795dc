// internal/api/normalize.go
package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"catalog-service/internal/domain"
)

const maxJSONBody = 1 << 20

// fieldAliases - устаревшие и camelCase имена полей, которые принимаются на входе.
// Ключ - каноническое имя, значения - псевдонимы в порядке приоритета.
var fieldAliases = map[string][]string{
	"title":    {"titulo"},
	"genre":    {"genero"},
	"director": {"diretor"},
	"cover":    {"capa"},
	"movie_id": {"movieId", "filmeId", "filme_id"},
	"score":    {"nota"},
	"name":     {"nome"},
	"password": {"senha"},
}

var canonicalNames = map[string]string{
	"Title":    "title",
	"Genre":    "genre",
	"Director": "director",
	"MovieID":  "movie_id",
	"Score":    "score",
	"Name":     "name",
	"Email":    "email",
	"Password": "password",
}

// decodeJSON читает тело запроса, переводит псевдонимы в канонические имена и декодирует в dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return domain.NewValidationError("body", "failed to read request body")
	}
	if len(body) > maxJSONBody {
		return domain.NewValidationError("body", "request body is too large")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return domain.NewValidationError("body", "invalid request payload")
	}
	normalizeKeys(raw)

	normalized, err := json.Marshal(raw)
	if err != nil {
		return domain.NewValidationError("body", "invalid request payload")
	}
	if err := json.Unmarshal(normalized, dst); err != nil {
		return domain.NewValidationError("body", "invalid field type: "+err.Error())
	}
	return nil
}

func normalizeKeys(raw map[string]json.RawMessage) {
	for canonical, aliases := range fieldAliases {
		for _, alias := range aliases {
			v, ok := raw[alias]
			if !ok {
				continue
			}
			delete(raw, alias)
			if _, exists := raw[canonical]; !exists {
				raw[canonical] = v
			}
		}
	}
}

// formValue возвращает значение поля multipart/url-encoded формы с учетом псевдонимов.
func formValue(r *http.Request, canonical string) string {
	if v := r.FormValue(canonical); v != "" {
		return v
	}
	for _, alias := range fieldAliases[canonical] {
		if v := r.FormValue(alias); v != "" {
			return v
		}
	}
	return ""
}

// formFileKey находит имя поля, под которым пришел файл обложки.
func formFileKey(r *http.Request, canonical string) string {
	if r.MultipartForm == nil {
		return ""
	}
	keys := append([]string{canonical}, fieldAliases[canonical]...)
	for _, k := range keys {
		if files := r.MultipartForm.File[k]; len(files) > 0 {
			return k
		}
	}
	return ""
}

func jsonFieldName(goField string) string {
	if name, ok := canonicalNames[goField]; ok {
		return name
	}
	return strings.ToLower(goField)
}
