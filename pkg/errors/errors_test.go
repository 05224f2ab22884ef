package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessError_Is(t *testing.T) {
	err := NotFound("项目 %s 不存在", "p-1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "项目 p-1 不存在", err.Error())

	wrapped := fmt.Errorf("加载失败: %w", Forbidden("仅导师可评审"))
	assert.True(t, errors.Is(wrapped, ErrForbidden))
	assert.Equal(t, "仅导师可评审", Reason(wrapped))
}

func TestReason(t *testing.T) {
	assert.Equal(t, ErrOptimisticLock.Error(), Reason(fmt.Errorf("x: %w", ErrOptimisticLock)))
	assert.Equal(t, "", Reason(errors.New("db down")))
	assert.Equal(t, ErrConflict.Error(), Reason(ErrConflict))
}

func TestBusinessError_EmptyReason(t *testing.T) {
	err := &BusinessError{Kind: ErrValidation}
	assert.Equal(t, ErrValidation.Error(), err.Error())
}
