package common

import (
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const referenceChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReference returns prefix followed by ten random reference characters.
func GenerateReference(prefix string) string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	result := make([]byte, 10)
	for i := range result {
		result[i] = referenceChars[r.Intn(len(referenceChars))]
	}
	return prefix + string(result)
}

// ParsePage reads page/limit query values, falling back to page 1 and the given limit.
func ParsePage(pageStr, limitStr string, defaultLimit int) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > 200 {
		limit = 200
	}
	return page, limit
}

// ObjectKey builds the storage key <category>/<unix-millis>_<originalname>.
func ObjectKey(category, originalName string, now time.Time) string {
	name := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return category + "/" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + name
}
