package entity

// Export итоговое перекрашенное изображение
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}
