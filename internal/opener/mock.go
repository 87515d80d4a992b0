package opener

import "github.com/stretchr/testify/mock"

// MockOpener is a testify mock of Opener.
//
//	o := new(MockOpener)
//	o.On("OpenURL", "https://wiki/x").Return(nil)
type MockOpener struct {
	mock.Mock
}

var _ Opener = (*MockOpener)(nil)

func (m *MockOpener) OpenURL(url string) error {
	return m.Called(url).Error(0)
}

func (m *MockOpener) CopyText(text string) error {
	return m.Called(text).Error(0)
}

func (m *MockOpener) EditFile(path string) error {
	return m.Called(path).Error(0)
}
