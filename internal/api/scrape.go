package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rockaxx/freegames/internal/fetcher"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/links"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/sources"
)

const (
	scrapeKeyPrefix    = "scrape:"
	jsonContentType    = "application/json; charset=utf-8"
	defaultImageType   = "image/jpeg"
	imageCacheControl  = "public, max-age=86400"
	errInvalidURL      = "missing or invalid url"
	errUpstreamFailure = "upstream fetch failed"
)

// ListingResponse is the body of /api/scrape.
type ListingResponse struct {
	Source string      `json:"source"`
	Count  int         `json:"count"`
	Items  []game.Stub `json:"items"`
}

// scrape parses one listing page of a supported site. Results are cached for
// ScrapeTTL.
func (h *Handler) scrape(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	u, ok := parseUpstreamURL(c.Query("url"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidURL})
		return
	}
	pageURL := u.String()

	ad, err := h.resolver.ForURL(pageURL)
	if err != nil {
		if errors.Is(err, sources.ErrUnknownSource) {
			c.JSON(http.StatusForbidden, gin.H{"error": errUnknownDomain})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	key := scrapeKeyPrefix + pageURL
	if body, hit, getErr := h.store.Get(ctx, key); getErr == nil && hit {
		c.Data(http.StatusOK, jsonContentType, []byte(body))
		return
	} else if getErr != nil {
		log.Warn("Scrape cache read failed", logger.Error(getErr))
	}

	stubs, err := ad.Listing(ctx, pageURL)
	if err != nil {
		log.Warn("Scrape failed", logger.URL(pageURL), logger.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": errUpstreamFailure})
		return
	}
	if stubs == nil {
		stubs = []game.Stub{}
	}

	body, err := json.Marshal(ListingResponse{Source: pageURL, Count: len(stubs), Items: stubs})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode listing"})
		return
	}
	if setErr := h.store.Set(ctx, key, string(body), h.cfg.ScrapeTTL); setErr != nil {
		log.Warn("Scrape cache write failed", logger.Error(setErr))
	}
	c.Data(http.StatusOK, jsonContentType, body)
}

// image proxies a poster or screenshot from an allow-listed host through
// the fetcher transport.
func (h *Handler) image(c *gin.Context) {
	u, ok := parseUpstreamURL(c.Query("url"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidURL})
		return
	}
	imageURL := u.String()

	host := links.Host(imageURL)
	if !hostAllowed(host, h.resolver.Hosts()) && !hostAllowed(host, h.cfg.ImageHosts) {
		c.JSON(http.StatusForbidden, gin.H{"error": errUnknownDomain})
		return
	}

	resp, err := h.images.Get(c.Request.Context(), imageURL, fetcher.Options{Retries: -1})
	if err != nil || resp.Challenge {
		logger.FromContext(c.Request.Context()).Debug("Image proxy failed", logger.URL(imageURL), logger.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": errUpstreamFailure})
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = defaultImageType
	}
	c.Header("Cache-Control", imageCacheControl)
	c.Data(http.StatusOK, contentType, resp.Body)
}
