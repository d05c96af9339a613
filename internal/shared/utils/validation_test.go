package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAutomationName(t *testing.T) {
	assert.NoError(t, ValidateAutomationName("Automation_20260314_090001"))
	assert.NoError(t, ValidateAutomationName("morning routine v2"))

	assert.Error(t, ValidateAutomationName(""))
	assert.Error(t, ValidateAutomationName("../escape"))
	assert.Error(t, ValidateAutomationName("a/b"))
	assert.Error(t, ValidateAutomationName(strings.Repeat("x", MaxNameLength+1)))
}
