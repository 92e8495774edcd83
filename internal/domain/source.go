package domain

// DataSource tells whether fetched tickets came from the marketplace or the mock generator.
type DataSource string

const (
	DataSourceLive DataSource = "live"
	DataSourceMock DataSource = "mock"
)

// IsMock reports whether s marks synthetic data.
func (s DataSource) IsMock() bool {
	return s == DataSourceMock
}
