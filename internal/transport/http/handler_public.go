package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"companion-world/internal/sim"
	"companion-world/internal/store"
)

type PublicHandlers struct {
	repo    store.Repository
	catalog *sim.Catalog
}

func NewPublicHandlers(repo store.Repository, catalog *sim.Catalog) *PublicHandlers {
	return &PublicHandlers{repo: repo, catalog: catalog}
}

type catalogResponse struct {
	ShopItems     []sim.Item                 `json:"shop_items"`
	MarketAgents  []sim.MarketAgent          `json:"market_agents"`
	Quests        []sim.QuestKind            `json:"quests"`
	Personalities map[string]sim.Personality `json:"personalities"`
}

func (h *PublicHandlers) Catalog() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, catalogResponse{
			ShopItems:     h.catalog.ShopItems,
			MarketAgents:  h.catalog.MarketAgents,
			Quests:        h.catalog.Quests,
			Personalities: h.catalog.Personalities,
		})
	}
}

func (h *PublicHandlers) Transactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := ParseLimit(r)
		items, err := h.repo.ListTransactions(r.Context(), chi.URLParam(r, "user_id"), limit)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit})
	}
}

func (h *PublicHandlers) Logs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := ParseLimit(r)
		items, err := h.repo.ListLogs(r.Context(), chi.URLParam(r, "user_id"), limit)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit})
	}
}
