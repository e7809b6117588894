package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/auth"
	"github.com/starford/techdocs/internal/checksum"
	"github.com/starford/techdocs/internal/docservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc   *docservice.Service
	authn *auth.Authenticator
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service, authn *auth.Authenticator) *Handler {
	return &Handler{svc: svc, authn: authn}
}

// wildcardPath extracts the path captured by a trailing /* route.
// Supports encoded slashes from clients (e.g. guides%2Fsetup.md).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func queryPath(r *http.Request) (string, error) {
	p := r.URL.Query().Get("path")
	if p == "" {
		return "", fmt.Errorf("%w: query parameter 'path' is required", apperr.ErrInvalidPath)
	}
	return p, nil
}

// Login handles POST /api/auth/login.
//
//	@Summary		Exchange credentials for a JWT
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	LoginResponse
//	@Failure		400		{object}	envelope
//	@Failure		401		{object}	envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "login", err)
		return
	}
	token, user, err := h.authn.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, r, "login", err)
		return
	}
	writeOK(w, http.StatusOK, LoginResponse{Token: token, User: user}, "login successful")
}

// CurrentUser handles GET /api/auth/user.
//
//	@Summary		Return the authenticated user
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	auth.User
//	@Failure		401	{object}	envelope
//	@Security		BearerAuth
//	@Router			/auth/user [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeOK(w, http.StatusOK, user, "")
}

// ListTree handles GET /api/docs.
//
//	@Summary		Nested listing of the document root
//	@Tags			docs
//	@Produce		json
//	@Success		200	{array}	models.DocumentNode
//	@Security		BearerAuth
//	@Router			/docs [get]
func (h *Handler) ListTree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.svc.Tree(r.Context())
	if err != nil {
		writeErrorAs(w, r, "list tree", err, errListingFailed)
		return
	}
	writeOK(w, http.StatusOK, nodes, "")
}

// ListFlat handles GET /api/docs/flat.
//
//	@Summary		Every document, newest first
//	@Tags			docs
//	@Produce		json
//	@Success		200	{array}	models.DocumentNode
//	@Security		BearerAuth
//	@Router			/docs/flat [get]
func (h *Handler) ListFlat(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.svc.Flat(r.Context())
	if err != nil {
		writeErrorAs(w, r, "list flat", err, errListingFailed)
		return
	}
	writeOK(w, http.StatusOK, nodes, "")
}

// GetDocument handles GET /api/docs/info?path=.
//
//	@Summary		Read one document
//	@Tags			docs
//	@Produce		json
//	@Param			path	query		string	true	"Document path"
//	@Success		200		{object}	models.Document
//	@Failure		400		{object}	envelope
//	@Failure		404		{object}	envelope
//	@Security		BearerAuth
//	@Router			/docs/info [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	p, err := queryPath(r)
	if err != nil {
		writeError(w, r, "get document", err)
		return
	}
	doc, err := h.svc.Get(r.Context(), p)
	if err != nil {
		writeError(w, r, "get document", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(doc.Checksum))
	writeOK(w, http.StatusOK, doc, "")
}

// RenderDocument handles GET /api/docs/render?path=.
//
//	@Summary		Render one document to HTML
//	@Tags			docs
//	@Produce		json
//	@Param			path	query		string	true	"Document path"
//	@Success		200		{object}	docservice.Rendered
//	@Failure		404		{object}	envelope
//	@Security		BearerAuth
//	@Router			/docs/render [get]
func (h *Handler) RenderDocument(w http.ResponseWriter, r *http.Request) {
	p, err := queryPath(r)
	if err != nil {
		writeError(w, r, "render document", err)
		return
	}
	out, err := h.svc.Render(r.Context(), p)
	if err != nil {
		writeError(w, r, "render document", err)
		return
	}
	writeOK(w, http.StatusOK, out, "")
}

// Search handles GET /api/docs/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{array}		index.SearchResult
//	@Failure		400		{object}	envelope
//	@Failure		503		{object}	envelope
//	@Security		BearerAuth
//	@Router			/docs/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeFail(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, r, "search", err)
		return
	}
	writeOK(w, http.StatusOK, results, "")
}

// SaveDocument handles POST /api/docs.
//
//	@Summary		Create or overwrite a document
//	@Tags			docs
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header		string				false	"Checksum of the content being replaced"
//	@Param			body		body		SaveDocumentRequest	true	"Document"
//	@Success		200			{object}	docservice.SaveResult
//	@Failure		400			{object}	envelope
//	@Failure		409			{object}	envelope
//	@Security		BearerAuth
//	@Router			/docs [post]
func (h *Handler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	var req SaveDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "save document", err)
		return
	}
	res, err := h.svc.Save(r.Context(), docservice.SaveInput{
		Path:    req.Path,
		Content: req.Content,
		Title:   req.Title,
		IfMatch: r.Header.Get("If-Match"),
	})
	if err != nil {
		writeError(w, r, "save document", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(res.Checksum))
	writeOK(w, http.StatusOK, res, "saved")
}

// DeleteDocument handles DELETE /api/docs/*.
//
//	@Summary		Delete a document
//	@Tags			docs
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	envelope
//	@Failure		404		{object}	envelope
//	@Security		BearerAuth
//	@Router			/docs/{path} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	p := wildcardPath(r)
	if err := h.svc.Delete(r.Context(), p); err != nil {
		writeError(w, r, "delete document", err)
		return
	}
	writeOK(w, http.StatusOK, nil, "deleted")
}

// MoveDocument handles POST /api/docs/move.
//
//	@Summary		Move or rename a document
//	@Tags			docs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveRequest	true	"Source and target"
//	@Success		200		{object}	docservice.MoveResult
//	@Failure		404		{object}	envelope
//	@Failure		409		{object}	envelope
//	@Security		BearerAuth
//	@Router			/docs/move [post]
func (h *Handler) MoveDocument(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "move document", err)
		return
	}
	res, err := h.svc.Move(r.Context(), req.SourcePath, req.TargetPath)
	if err != nil {
		writeError(w, r, "move document", err)
		return
	}
	writeOK(w, http.StatusOK, res, "moved")
}

// CreateDirectory handles POST /api/directories.
//
//	@Summary		Create an empty directory
//	@Tags			directories
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDirectoryRequest	true	"Directory"
//	@Success		201		{object}	envelope
//	@Failure		409		{object}	envelope
//	@Security		BearerAuth
//	@Router			/directories [post]
func (h *Handler) CreateDirectory(w http.ResponseWriter, r *http.Request) {
	var req CreateDirectoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create directory", err)
		return
	}
	if err := h.svc.CreateDirectory(r.Context(), req.Path); err != nil {
		writeError(w, r, "create directory", err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]string{"path": req.Path}, "directory created")
}

// DeleteDirectory handles DELETE /api/directories/*.
//
//	@Summary		Delete an empty directory
//	@Tags			directories
//	@Param			path	path		string	true	"Directory path"
//	@Success		200		{object}	envelope
//	@Failure		404		{object}	envelope
//	@Failure		409		{object}	envelope
//	@Security		BearerAuth
//	@Router			/directories/{path} [delete]
func (h *Handler) DeleteDirectory(w http.ResponseWriter, r *http.Request) {
	p := wildcardPath(r)
	if err := h.svc.DeleteDirectory(r.Context(), p); err != nil {
		writeError(w, r, "delete directory", err)
		return
	}
	writeOK(w, http.StatusOK, nil, "directory deleted")
}
