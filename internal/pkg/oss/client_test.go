package oss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportKey(t *testing.T) {
	at := time.Unix(1710496800, 0)
	assert.Equal(t, "reports/01HXYZ/1710496800.md", ReportKey("01HXYZ", at))
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/reports/a/1.md",
		objectURL("cdn.example.com", "bucket", "oss-cn-hangzhou.aliyuncs.com", "reports/a/1.md"))
	assert.Equal(t, "https://bucket.oss-cn-hangzhou.aliyuncs.com/reports/a/1.md",
		objectURL("", "bucket", "oss-cn-hangzhou.aliyuncs.com", "reports/a/1.md"))
}
