package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	tmdb "github.com/angelospk/tmdb-go"
	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
	"github.com/angelospk/tmdb-go/pkg/core/nonce"
	"github.com/angelospk/tmdb-go/pkg/core/settings"
	"github.com/angelospk/tmdb-go/pkg/core/view"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	g "maragu.dev/gomponents"
)

// A helper function to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to respond with a JSON error
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

func (s *Server) render(w http.ResponseWriter, status int, node g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := node.Render(w); err != nil {
		s.logger.WithError(err).Warn("Failed to render response")
	}
}

func itemID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid item id")
	}
	return uint(id), nil
}

// loadItem resolves the {id} route variable, writing the error response on failure.
func (s *Server) loadItem(w http.ResponseWriter, r *http.Request) (*host.Item, bool) {
	id, err := itemID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return nil, false
	}
	item, err := s.deps.Host.GetItem(r.Context(), id)
	if errors.Is(err, coreErrors.ErrItemNotFound) {
		respondError(w, http.StatusNotFound, "Item not found")
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).WithField("item_id", id).Error("Failed to load item")
		respondError(w, http.StatusInternalServerError, "Failed to load item")
		return nil, false
	}
	return item, true
}

// checkNonce verifies the sideload token posted for the item.
func (s *Server) checkNonce(w http.ResponseWriter, r *http.Request, id uint) bool {
	if err := s.deps.Nonces.Verify(nonce.SideloadAction(id), r.FormValue(view.NonceFieldName)); err != nil {
		s.logger.WithField("item_id", id).Debug("Rejected sideload request with a bad nonce")
		respondError(w, http.StatusForbidden, "-1")
		return false
	}
	return true
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	item := &host.Item{Title: strings.TrimSpace(r.PostFormValue("title")), Type: "movie"}
	if err := s.deps.Host.CreateItem(r.Context(), item); err != nil {
		s.logger.WithError(err).Error("Failed to create item")
		respondError(w, http.StatusInternalServerError, "Failed to create item")
		return
	}
	http.Redirect(w, r, itemURL(item.ID)+"/edit", http.StatusSeeOther)
}

func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.loadItem(w, r)
	if !ok {
		return
	}
	st, err := view.LoadState(r.Context(), s.deps.Host, s.deps.Host, item)
	if err != nil {
		s.logger.WithError(err).WithField("item_id", item.ID).Error("Failed to load movie data")
		respondError(w, http.StatusInternalServerError, "Failed to load movie data")
		return
	}
	st.Nonce = s.deps.Nonces.Create(nonce.SideloadAction(item.ID))
	st.MediaURL = s.mediaURL
	if st.Record != nil && s.deps.Images != nil {
		st.ImageURLs = s.deps.Images.ImageURLs(r.Context(), st.Record)
	}
	s.render(w, http.StatusOK, view.EditPage(st))
}

// handleSaveItem stores the posted title and body. Saving fires the save hooks, which run
// the movie workflow against the posted form.
func (s *Server) handleSaveItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.loadItem(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	if _, ok := r.PostForm["title"]; ok {
		item.Title = strings.TrimSpace(r.PostFormValue("title"))
	}
	if _, ok := r.PostForm["content"]; ok {
		item.Content = r.PostFormValue("content")
	}

	ctx := host.WithSubmission(r.Context(), host.Submission{
		Form:     r.PostForm,
		CanEdit:  canEdit(r.Context()),
		Autosave: r.PostFormValue("autosave") != "",
	})
	if err := s.deps.Host.UpdateItem(ctx, item); err != nil {
		s.logger.WithError(err).WithField("item_id", item.ID).Error("Failed to save item")
		respondError(w, http.StatusInternalServerError, "Failed to save item")
		return
	}
	http.Redirect(w, r, itemURL(item.ID)+"/edit", http.StatusSeeOther)
}

func (s *Server) handleShowItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.loadItem(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	v := view.PublicView{Item: item, Terms: map[string][]host.Term{}, MediaURL: s.mediaURL}
	for _, tax := range metadata.Taxonomies() {
		terms, err := s.deps.Host.ItemTerms(ctx, item.ID, tax)
		if err != nil {
			s.logger.WithError(err).WithField("taxonomy", tax).Warn("Failed to load terms")
			continue
		}
		v.Terms[tax] = terms
	}
	v.Trailer, _, _ = s.deps.Host.GetMeta(ctx, item.ID, metadata.MetaTrailer)
	if ids, _, err := s.deps.Host.GetMeta(ctx, item.ID, metadata.MetaImages); err == nil {
		for _, id := range metadata.DecodeImageIDs(ids) {
			if att, err := s.deps.Host.GetAttachment(ctx, id); err == nil {
				v.Images = append(v.Images, *att)
			}
		}
	}
	s.render(w, http.StatusOK, view.PublicPage(v))
}

// handleSideloadImage downloads a single posted URL and returns the attachment markup.
// Failed downloads answer "0".
func (s *Server) handleSideloadImage(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	if !s.checkNonce(w, r, id) {
		return
	}
	att, err := s.deps.Sideloader.SideloadWithTitle(r.Context(), id, r.FormValue("url"), strings.TrimSpace(r.FormValue("desc")))
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{"item_id": id, "url": r.FormValue("url")}).Debug("Sideload failed")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("0"))
		return
	}
	s.render(w, http.StatusOK, view.AttachmentImage(*att, s.mediaURL(view.ThumbSource(*att))))
}

// handleImagesComplete records the attachment ids a client-driven chain collected.
func (s *Server) handleImagesComplete(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	if !s.checkNonce(w, r, id) {
		return
	}
	var ids []uint
	for _, field := range append(r.Form["ids[]"], r.Form["ids"]...) {
		for _, part := range strings.Split(field, ",") {
			n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil || n == 0 {
				continue
			}
			ids = append(ids, uint(n))
		}
	}
	if err := s.deps.Reporter.Complete(r.Context(), id, ids); err != nil {
		s.logger.WithError(err).WithField("item_id", id).Error("Failed to record images")
		respondError(w, http.StatusInternalServerError, "Failed to record images")
		return
	}
	stored, _, _ := s.deps.Host.GetMeta(r.Context(), id, metadata.MetaImages)
	respondJSON(w, http.StatusOK, map[string]interface{}{"images": metadata.DecodeImageIDs(stored)})
}

// handleSideloadStart opens a session over the selected movie's images and answers with
// the trigger for the first step.
func (s *Server) handleSideloadStart(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	if !s.checkNonce(w, r, id) {
		return
	}
	ctx := r.Context()
	var urls []string
	if data, _, err := s.deps.Host.GetMeta(ctx, id, metadata.MetaMovieData); err == nil && data != "" {
		if record, err := tmdb.DecodeMovieRecord([]byte(data)); err == nil {
			urls = s.deps.Images.ImageURLs(ctx, record)
		}
	}

	token := r.FormValue(view.NonceFieldName)
	session := s.deps.Queue.Start(id, urls)
	if session.Remaining() == 0 {
		if _, err := session.Finish(ctx); err != nil {
			s.logger.WithError(err).WithField("item_id", id).Warn("Failed to finish empty sideload session")
		}
		s.render(w, http.StatusOK, view.SideloadStep(id, token, nil, "", true))
		return
	}
	s.render(w, http.StatusOK, view.SideloadStep(id, token, nil, "", false))
}

// handleSideloadNext runs one download of the item's session.
func (s *Server) handleSideloadNext(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	if !s.checkNonce(w, r, id) {
		return
	}
	ctx := r.Context()
	token := r.FormValue(view.NonceFieldName)

	session, err := s.deps.Queue.Session(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	task, err := session.Next(ctx)
	switch {
	case errors.Is(err, coreErrors.ErrInFlight):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, coreErrors.ErrQueueDone):
		task = nil
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var att *host.Attachment
	if task != nil && task.AttachmentID != 0 {
		if att, err = s.deps.Host.GetAttachment(ctx, task.AttachmentID); err != nil {
			s.logger.WithError(err).WithField("attachment_id", task.AttachmentID).Warn("Sideloaded attachment is missing")
			att = nil
		}
	}
	src := ""
	if att != nil {
		src = s.mediaURL(view.ThumbSource(*att))
	}

	done := session.Remaining() == 0
	if done {
		if _, err := session.Finish(ctx); err != nil {
			s.logger.WithError(err).WithField("item_id", id).Error("Failed to record sideloaded images")
		}
	}
	s.render(w, http.StatusOK, view.SideloadStep(id, token, att, src, done))
}

func (s *Server) handleSideloadHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Queue.GetHistory())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := view.SettingsState{}
	if r.Method == http.MethodPost {
		res, err := s.deps.Settings.SaveAPIKey(ctx, r.FormValue(settings.OptionAPIKey))
		if err != nil {
			s.logger.WithError(err).Error("Failed to save API key")
			respondError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
		st = view.SettingsState{Key: res.Key, Valid: res.Valid, Message: res.Message, Saved: true}
		s.render(w, http.StatusOK, view.SettingsPage(st))
		return
	}

	var err error
	if st.Key, err = s.deps.Settings.APIKey(ctx); err == nil {
		st.Valid, err = s.deps.Settings.IsValid(ctx)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	s.render(w, http.StatusOK, view.SettingsPage(st))
}
