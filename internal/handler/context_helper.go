package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

const dateLayout = "2006-01-02"

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}

// queryInt reads an optional integer query parameter. Missing values yield fallback.
func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be an integer")
	}
	return value, nil
}

// queryDate reads an optional YYYY-MM-DD query parameter. Missing values yield fallback.
func queryDate(c *gin.Context, name string, fallback time.Time) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" format, expected YYYY-MM-DD")
	}
	return parsed, nil
}

// monthAndYear reads the month/year query pair, defaulting to the current UTC month.
func monthAndYear(c *gin.Context, now time.Time) (int, int, error) {
	month, err := queryInt(c, "month", int(now.Month()))
	if err != nil {
		return 0, 0, err
	}
	year, err := queryInt(c, "year", now.Year())
	if err != nil {
		return 0, 0, err
	}
	return month, year, nil
}
