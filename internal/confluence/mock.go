package confluence

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of Client.
//
// Example usage:
//
//	client := new(MockClient)
//	client.On("ListChildren", mock.Anything, "100", 25, 0).Return(PageList{...}, nil)
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) SpaceHomepage(ctx context.Context, spaceKey string) (Page, error) {
	args := m.Called(ctx, spaceKey)
	return args.Get(0).(Page), args.Error(1)
}

func (m *MockClient) GetPage(ctx context.Context, id string) (Page, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Page), args.Error(1)
}

func (m *MockClient) RenderedBody(ctx context.Context, id string, export bool) (string, error) {
	args := m.Called(ctx, id, export)
	return args.String(0), args.Error(1)
}

func (m *MockClient) ListChildren(ctx context.Context, id string, limit, start int) (PageList, error) {
	args := m.Called(ctx, id, limit, start)
	return args.Get(0).(PageList), args.Error(1)
}

func (m *MockClient) ListAllChildren(ctx context.Context, id string) ([]PageSummary, error) {
	args := m.Called(ctx, id)
	entries, _ := args.Get(0).([]PageSummary)
	return entries, args.Error(1)
}

func (m *MockClient) ListSpace(ctx context.Context, spaceKey string, opts ListOptions) (PageList, error) {
	args := m.Called(ctx, spaceKey, opts)
	return args.Get(0).(PageList), args.Error(1)
}

func (m *MockClient) Search(ctx context.Context, cql string, limit, start int) (PageList, error) {
	args := m.Called(ctx, cql, limit, start)
	return args.Get(0).(PageList), args.Error(1)
}

func (m *MockClient) FindPageByTitle(ctx context.Context, spaceKey, title, parentID string) (Page, error) {
	args := m.Called(ctx, spaceKey, title, parentID)
	return args.Get(0).(Page), args.Error(1)
}

func (m *MockClient) CreatePage(ctx context.Context, req CreateRequest) (Page, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Page), args.Error(1)
}

func (m *MockClient) UpdatePage(ctx context.Context, req UpdateRequest) (Page, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Page), args.Error(1)
}

func (m *MockClient) AddLabels(ctx context.Context, id string, labels []string) error {
	args := m.Called(ctx, id, labels)
	return args.Error(0)
}

// MockBaseURL is what MockClient.BaseURL reports.
const MockBaseURL = "https://confluence.example.com"

func (m *MockClient) BaseURL() string {
	return MockBaseURL
}
