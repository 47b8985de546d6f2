/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package debug

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Store is the read side of History.
type Store interface {
	List() []Entry
	Get(id string) (Entry, bool)
}

// DebugHandler provides debug endpoints for the server
type DebugHandler struct {
	store Store
}

// NewDebugHandler creates a new debug handler
func NewDebugHandler(store Store) *DebugHandler {
	return &DebugHandler{
		store: store,
	}
}

// ListComparisons handles GET /debug/comparisons
func (h *DebugHandler) ListComparisons(c *gin.Context) {
	entries := h.store.List()
	if entries == nil {
		entries = []Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"comparisons": entries})
}

// GetComparison handles GET /debug/comparisons/:id
func (h *DebugHandler) GetComparison(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id parameter is required"})
		return
	}

	entry, ok := h.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "comparison not found"})
		return
	}
	c.JSON(http.StatusOK, entry)
}
