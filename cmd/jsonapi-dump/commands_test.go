package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/matryer/is"
)

const tagUUID string = "8f1d0c6e-2f7b-4d0e-9f43-6a7c2b9e1d55"

func TestEntityCommand(t *testing.T) {
	is := is.New(t)

	ms := testutils.NewMockServiceThat(
		Expects(is, expects.RequestMethod(http.MethodGet), expects.RequestPath("/jsonapi/taxonomy_term/tags/"+tagUUID)),
		Returns(
			response.ContentType("application/vnd.api+json"),
			response.Code(http.StatusOK),
			response.Body([]byte(tagJSON)),
		),
	)
	defer ms.Close()

	out, err := execute(t, "--url", ms.URL(), "entity", "taxonomy_term--tags", tagUUID)
	is.NoErr(err)

	envelope := map[string]any{}
	is.NoErr(json.Unmarshal(out, &envelope))
	is.True(envelope["entity"] != nil)
	is.True(envelope["cache"] != nil)
}

func TestEntityCommandWithQuery(t *testing.T) {
	is := is.New(t)

	ms := testutils.NewMockServiceThat(
		Expects(is, expects.AnyInput()),
		Returns(
			response.ContentType("application/vnd.api+json"),
			response.Code(http.StatusOK),
			response.Body([]byte(tagJSON)),
		),
	)
	defer ms.Close()

	out, err := execute(t, "--url", ms.URL(), "--jq", ".entity.data.attributes.drupal_internal__tid", "entity", "taxonomy_term--tags", tagUUID)
	is.NoErr(err)
	is.Equal(string(bytes.TrimSpace(out)), "7")
}

func TestEntityCommandWithInvalidType(t *testing.T) {
	is := is.New(t)

	_, err := execute(t, "--url", "http://lolcathost:1234", "entity", "tags", tagUUID)
	is.True(err != nil)
}

func TestCommandRequiresURL(t *testing.T) {
	is := is.New(t)

	_, err := execute(t, "entity", "taxonomy_term--tags", tagUUID)
	is.True(err != nil)
}

func execute(t *testing.T, args ...string) ([]byte, error) {
	out := &bytes.Buffer{}

	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.Bytes(), err
}

var Expects = testutils.Expects
var Returns = testutils.Returns

const tagJSON string = `{
	"data": {
		"type": "taxonomy_term--tags",
		"id": "8f1d0c6e-2f7b-4d0e-9f43-6a7c2b9e1d55",
		"attributes": {"drupal_internal__tid": 7, "name": "lakes"},
		"relationships": {}
	}
}`
