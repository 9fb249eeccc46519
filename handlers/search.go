package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"meela-intake/utils"
)

type SearchHandler struct {
	es    utils.ElasticsearchClient
	index string
}

func NewSearchHandler(es utils.ElasticsearchClient, index string) *SearchHandler {
	return &SearchHandler{es: es, index: index}
}

// SearchForms ищет анкеты по email и выбранным вариантам: GET /api/forms/search?q=...
func (h *SearchHandler) SearchForms(c *gin.Context) {
	if h.es == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	query := map[string]interface{}{
		"size": 50,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": []string{"email", "therapy_for_whom", "therapist_gender"},
			},
		},
	}

	results, err := h.es.Search(c.Request.Context(), h.index, query)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}
