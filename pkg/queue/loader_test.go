package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocumentGetter struct {
	docs map[string]map[string]any
	err  error
}

func (f *fakeDocumentGetter) Get(ctx context.Context, id string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.docs[id], nil
}

func TestGatewayLoader_DecodesEachDocument(t *testing.T) {
	gw := &fakeDocumentGetter{docs: map[string]map[string]any{
		"app-1": {"application_id": "app-1", "authority": "Camden"},
		"app-2": {"application_id": "app-2", "authority": "Islington"},
	}}
	loader := NewGatewayLoader(gw)

	apps, err := loader.LoadApplications(context.Background(), []string{"app-1", "app-2"})
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "app-1", apps[0].ApplicationID)
	assert.Equal(t, "Camden", apps[0].Authority)
	assert.Equal(t, "app-2", apps[1].ApplicationID)
}

func TestGatewayLoader_PropagatesGatewayError(t *testing.T) {
	gw := &fakeDocumentGetter{err: assert.AnError}
	loader := NewGatewayLoader(gw)

	_, err := loader.LoadApplications(context.Background(), []string{"app-1"})
	assert.ErrorIs(t, err, assert.AnError)
}
