package result

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOK(t *testing.T) {
	assert.True(t, IsOK(nil))
	assert.True(t, IsOK([]Result{OK("a"), OK("b")}))
	assert.False(t, IsOK([]Result{OK("a"), Fail(DBInsertFailed, "boom")}))
}

func TestIsTrue(t *testing.T) {
	assert.True(t, IsTrue(OK("x")))
	assert.False(t, IsTrue(Fail(DBQueryFailed, "x")))
	assert.True(t, IsTrue([]Result{OK("x")}))
	assert.False(t, IsTrue([]Result{OK("x"), Fail(DBQueryFailed, "y")}))
	assert.True(t, IsTrue(true))
	assert.False(t, IsTrue(false))
	assert.False(t, IsTrue("yes"))
	assert.False(t, IsTrue((*Result)(nil)))
}

func TestFailCarriesCode(t *testing.T) {
	r := Failf(DBRecordNotFound, "item %d", 7)
	require.NotNil(t, r.ErrorCode)
	assert.Equal(t, DBRecordNotFound, r.Code())
	assert.Equal(t, "item 7", r.Message)
	assert.Equal(t, ErrorCode(""), OK("fine").Code())
}

func TestFromError(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", Errorf(DBRecordNotFound, "player %d", 3))
	r := FromError(wrapped, DBQueryFailed)
	assert.Equal(t, DBRecordNotFound, r.Code())
	assert.Equal(t, "player 3", r.Message)

	r = FromError(errors.New("driver: bad connection"), DBQueryFailed)
	assert.Equal(t, DBQueryFailed, r.Code())
	assert.Contains(t, r.Message, "bad connection")
}

func TestFirstFailure(t *testing.T) {
	_, ok := FirstFailure([]Result{OK("a")})
	assert.False(t, ok)
	r, ok := FirstFailure([]Result{OK("a"), Fail(DBDeleteFailed, "b"), Fail(DBInsertFailed, "c")})
	require.True(t, ok)
	assert.Equal(t, DBDeleteFailed, r.Code())
}
