package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-mgmt-api/pkg/middleware/requestid"
)

func TestResponseMetaCarriesRequestAndSchool(t *testing.T) {
	var meta map[string]interface{}
	r := newRouter("/schools/:schoolId/classes",
		requestid.Middleware(), WithResponseMeta(), JWT(testTokens), SchoolScope(),
		func(c *gin.Context) { meta = ExtractMeta(c) },
	)

	w := do(r, "/schools/school-1/classes", "teacher")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, w.Header().Get("X-Request-ID"), meta["requestId"])
	assert.Equal(t, "school-1", meta["schoolId"])
	assert.NotEmpty(t, meta["requestedAt"])
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	var meta map[string]interface{}
	r := newRouter("/x", func(c *gin.Context) { meta = ExtractMeta(c) })
	do(r, "/x", "")
	assert.Nil(t, meta)
}

func TestExtractMetaReturnsCopy(t *testing.T) {
	var first, second map[string]interface{}
	r := newRouter("/x", WithResponseMeta(), func(c *gin.Context) {
		first = ExtractMeta(c)
		first["mutated"] = true
		second = ExtractMeta(c)
	})
	do(r, "/x", "")
	assert.NotContains(t, second, "mutated")
}
