package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestWeChatLinkColumns(t *testing.T) {
	s, err := schema.Parse(&WeChatLinkModel{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	assert.Equal(t, "openid", s.LookUpField("OpenID").DBName)
	assert.Equal(t, "unionid", s.LookUpField("UnionID").DBName)
	assert.Equal(t, "primary_subject", s.LookUpField("PrimarySubject").DBName)
}

func TestBeforeSaveTrimsDestinationURL(t *testing.T) {
	r := &ResourceModel{DestinationURL: " https://x.example\n"}
	require.NoError(t, r.BeforeSave(nil))
	assert.Equal(t, "https://x.example", r.DestinationURL)
	assert.Equal(t, URLHash("https://x.example"), r.DestinationURLHash)

	s := &SubmissionModel{DestinationURL: "https://x.example "}
	require.NoError(t, s.BeforeSave(nil))
	assert.Equal(t, "https://x.example", s.DestinationURL)
	assert.Equal(t, r.DestinationURLHash, s.DestinationURLHash)
}
