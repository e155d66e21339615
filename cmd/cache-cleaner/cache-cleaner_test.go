package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestMaxAgeDefaultsToOneDay(t *testing.T) {
	is := is.New(t)
	t.Setenv("CACHE_MAX_AGE", "")
	os.Unsetenv("CACHE_MAX_AGE")

	d, err := maxAge(context.Background())
	is.NoErr(err)
	is.Equal(d, 24*time.Hour)
}

func TestMaxAgeFromEnvironment(t *testing.T) {
	is := is.New(t)
	t.Setenv("CACHE_MAX_AGE", "90m")

	d, err := maxAge(context.Background())
	is.NoErr(err)
	is.Equal(d, 90*time.Minute)
}

func TestInvalidMaxAge(t *testing.T) {
	is := is.New(t)
	t.Setenv("CACHE_MAX_AGE", "a week")

	_, err := maxAge(context.Background())
	is.True(err != nil)
}
