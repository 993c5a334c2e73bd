package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseTargetConnString(t *testing.T) {
	tests := []struct {
		name     string
		target   DatabaseTarget
		expected string
	}{
		{
			name:     "without password",
			target:   DatabaseTarget{Host: "master", User: "postgres", Database: "postgres"},
			expected: "host='master' user='postgres' dbname='postgres'",
		},
		{
			name:     "with password",
			target:   DatabaseTarget{Host: "master", User: "citus", Password: "s3cret", Database: "app"},
			expected: "host='master' user='citus' password='s3cret' dbname='app'",
		},
		{
			name:     "quotes and backslashes are escaped",
			target:   DatabaseTarget{Host: "master", User: "postgres", Password: `it's\x`, Database: "postgres"},
			expected: `host='master' user='postgres' password='it\'s\\x' dbname='postgres'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.target.ConnString())
		})
	}
}

func TestDatabaseTargetStringHidesPassword(t *testing.T) {
	target := DatabaseTarget{Host: "master", User: "postgres", Password: "hunter2", Database: "db"}

	assert.Equal(t, "postgres@master/db", target.String())
	assert.NotContains(t, target.String(), "hunter2")
}

func TestComposeProjectLabel(t *testing.T) {
	assert.Equal(t, "com.docker.compose.project=citus", ComposeProject("citus").Label())
}
