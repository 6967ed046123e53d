package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	fulfillmentdomain "github.com/xtreino/platform/internal/fulfillment/domain"
	"github.com/xtreino/platform/internal/identity"
	userdomain "github.com/xtreino/platform/internal/user/domain"
	"go.uber.org/zap"
)

type downloadManifestEntry struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// GetDownload resolves a buyer's delivery and either lists its files or
// streams one of them. The upstream URL never reaches the client; the proxy
// is what keeps the storage location private.
func (s *Server) GetDownload(c *gin.Context) {
	orderID, err := strconv.ParseInt(strings.TrimSpace(c.Query("orderId")), 10, 64)
	if err != nil || orderID <= 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	delivery, err := s.deliveryRepo.FindByOrderID(c.Request.Context(), s.db, orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if delivery == nil {
		AbortWithError(c, fulfillmentdomain.ErrNotFound)
		return
	}
	if !s.mayAccessDelivery(c, delivery) {
		AbortWithError(c, ErrForbidden)
		return
	}

	var deliverables []fulfillmentdomain.Deliverable
	if err := json.Unmarshal(delivery.Deliverables, &deliverables); err != nil {
		s.log.Error("corrupt deliverables payload",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		AbortWithError(c, ErrInternal)
		return
	}

	if c.Query("list") == "1" {
		manifest := make([]downloadManifestEntry, 0, len(deliverables))
		for i, item := range deliverables {
			manifest = append(manifest, downloadManifestEntry{
				Index:       i,
				Name:        item.Name,
				Description: item.Description,
			})
		}
		c.JSON(http.StatusOK, gin.H{"files": manifest})
		return
	}

	index := 0
	if raw := c.Query("i"); raw != "" {
		index, err = strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, fulfillmentdomain.ErrInvalidIndex)
			return
		}
	}
	if index < 0 || index >= len(deliverables) {
		AbortWithError(c, fulfillmentdomain.ErrInvalidIndex)
		return
	}

	target := deliverables[index]
	if strings.TrimSpace(target.URL) == "" {
		AbortWithError(c, fulfillmentdomain.ErrMissingFileURL)
		return
	}

	s.streamFile(c, target)
}

func (s *Server) mayAccessDelivery(c *gin.Context, delivery *fulfillmentdomain.DigitalDelivery) bool {
	id, ok := identity.FromContext(c.Request.Context())
	if !ok {
		return false
	}
	if id.Role == userdomain.RoleManager || id.Role == userdomain.RoleAdmin {
		return true
	}
	if id.Email != "" && strings.EqualFold(id.Email, delivery.CustomerEmail) {
		return true
	}
	return id.UID != "" && id.UID == delivery.CustomerUID
}

func (s *Server) streamFile(c *gin.Context, target fulfillmentdomain.Deliverable) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target.URL, nil)
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}

	resp, err := s.fetchClient.Do(req)
	if err != nil {
		s.log.Error("download fetch failed", zap.String("name", target.Name), zap.Error(err))
		AbortWithError(c, ErrInternal)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("download source returned non-200",
			zap.String("name", target.Name),
			zap.Int("status", resp.StatusCode),
		)
		AbortWithError(c, fulfillmentdomain.ErrNotFound)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", `attachment; filename="`+downloadFileName(target)+`"`)
	c.Header("Content-Type", contentType)
	if length := resp.Header.Get("Content-Length"); length != "" {
		c.Header("Content-Length", length)
	}

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		s.log.Warn("download stream interrupted", zap.String("name", target.Name), zap.Error(err))
	}
}

// downloadFileName derives a header-safe filename from the deliverable URL,
// falling back to its display name.
func downloadFileName(target fulfillmentdomain.Deliverable) string {
	name := ""
	if parsed, err := url.Parse(target.URL); err == nil {
		name = path.Base(parsed.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = target.Name
	}
	return sanitizeFileName(name)
}

func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_' || r == ' ':
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "download"
	}
	return out
}
