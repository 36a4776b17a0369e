package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockClient implements Client for testing.
type mockClient struct {
	mock.Mock
}

func (m *mockClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func page(id string) notionapi.Page {
	return notionapi.Page{ID: notionapi.ObjectID(id)}
}

func TestQueryAll_SinglePage(t *testing.T) {
	mc := &mockClient{}
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{page("p1"), page("p2")},
			HasMore: false,
		}, nil).Once()

	pages, err := QueryAll(ctx, mc, "db", nil)
	assert.NoError(t, err)
	assert.Len(t, pages, 2)
	mc.AssertExpectations(t)
}

func TestQueryAll_Pagination(t *testing.T) {
	mc := &mockClient{}
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == ""
	})).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{page("p1")},
		HasMore:    true,
		NextCursor: "cursor-2",
	}, nil).Once()

	mc.On("QueryDatabase", ctx, "db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == "cursor-2"
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{page("p2")},
		HasMore: false,
	}, nil).Once()

	pages, err := QueryAll(ctx, mc, "db", nil)
	assert.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, "p1", string(pages[0].ID))
	assert.Equal(t, "p2", string(pages[1].ID))
	mc.AssertExpectations(t)
}

func TestQueryAll_PropagatesFilter(t *testing.T) {
	mc := &mockClient{}
	ctx := context.Background()

	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Status:   &notionapi.StatusFilterCondition{Equals: "Active"},
		},
		PageSize: 25,
	}

	mc.On("QueryDatabase", ctx, "db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.PageSize == 25 && req.Filter != nil
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{page("p1")},
		HasMore: false,
	}, nil).Once()

	pages, err := QueryAll(ctx, mc, "db", filter)
	assert.NoError(t, err)
	assert.Len(t, pages, 1)
	mc.AssertExpectations(t)
}

func TestQueryAll_Error(t *testing.T) {
	mc := &mockClient{}
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(nil, assert.AnError).Once()

	pages, err := QueryAll(ctx, mc, "db", nil)
	assert.Error(t, err)
	assert.Nil(t, pages)
	mc.AssertExpectations(t)
}

func TestQueryActiveQuestions_Filter(t *testing.T) {
	mc := &mockClient{}
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		pf, ok := req.Filter.(notionapi.PropertyFilter)
		return ok && pf.Property == "Status" && pf.Status != nil && pf.Status.Equals == "Active"
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{page("p1")},
		HasMore: false,
	}, nil).Once()

	pages, err := QueryActiveQuestions(ctx, mc, "db")
	assert.NoError(t, err)
	assert.Len(t, pages, 1)
	mc.AssertExpectations(t)
}
