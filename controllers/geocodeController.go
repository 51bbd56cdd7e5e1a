package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"issuex/config"
	"issuex/geo"
	"issuex/models"

	"github.com/gin-gonic/gin"
)

// geocodeCacheTTL keeps resolved addresses warm; street addresses do not
// move often.
const geocodeCacheTTL = 7 * 24 * time.Hour

var nominatim = geo.NewNominatimClient(os.Getenv("NOMINATIM_URL"), &http.Client{Timeout: 10 * time.Second})

// ReverseGeocode proxies reverse geocoding for clients, caching responses
// in Redis so the outbound throttle is rarely hit.
func ReverseGeocode(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		fail(c, http.StatusBadRequest, "lat and lng query parameters are required")
		return
	}
	if !(models.Location{Lat: lat, Lng: lng}).Valid() {
		fail(c, http.StatusBadRequest, "Coordinates out of range")
		return
	}

	cacheKey := fmt.Sprintf("issuex:geocode:rev:%.5f:%.5f", lat, lng)
	if config.RedisClient != nil {
		if cached, err := config.RedisClient.Get(config.Ctx, cacheKey).Result(); err == nil {
			ok(c, http.StatusOK, gin.H{"address": cached}, "")
			return
		}
	}

	address, err := nominatim.Reverse(c.Request.Context(), lat, lng)
	if err != nil {
		fail(c, http.StatusBadGateway, "Reverse geocoding failed")
		return
	}

	if config.RedisClient != nil {
		_ = config.RedisClient.Set(config.Ctx, cacheKey, address, geocodeCacheTTL).Err()
	}

	ok(c, http.StatusOK, gin.H{"address": address}, "")
}

// ForwardGeocode proxies forward geocoding. A miss is a 404 with a
// not-found message, not a server error.
func ForwardGeocode(c *gin.Context) {
	query := c.Query("address")
	if query == "" {
		fail(c, http.StatusBadRequest, "address query parameter is required")
		return
	}

	if loc, matched := geo.ParseLatLng(query); matched {
		ok(c, http.StatusOK, loc, "")
		return
	}

	cacheKey := "issuex:geocode:fwd:" + query
	if config.RedisClient != nil {
		if cached, err := config.RedisClient.Get(config.Ctx, cacheKey).Result(); err == nil {
			var loc models.Location
			if json.Unmarshal([]byte(cached), &loc) == nil {
				ok(c, http.StatusOK, loc, "")
				return
			}
		}
	}

	loc, err := nominatim.Forward(c.Request.Context(), query)
	if err != nil {
		fail(c, http.StatusBadGateway, "Forward geocoding failed")
		return
	}
	if loc == nil {
		fail(c, http.StatusNotFound, "Address not found")
		return
	}

	if config.RedisClient != nil {
		if raw, err := json.Marshal(loc); err == nil {
			_ = config.RedisClient.Set(config.Ctx, cacheKey, raw, geocodeCacheTTL).Err()
		}
	}

	ok(c, http.StatusOK, loc, "")
}
