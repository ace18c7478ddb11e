package entity

// WeatherRecord is one row of weather_data.
type WeatherRecord struct {
	ID          int     `json:"id"`
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Date        string  `json:"date"` // YYYY-MM-DD
	WindSpeed   float64 `json:"windSpeed"`
}

// WeatherFilter selects weather records by city, date or both.
type WeatherFilter struct {
	City string `query:"city"`
	Date string `query:"date"`
}

// Empty reports whether neither filter is set.
func (f WeatherFilter) Empty() bool {
	return f.City == "" && f.Date == ""
}

/*
Mysql Table

CREATE TABLE weather_data (
	id INT AUTO_INCREMENT PRIMARY KEY,
	city VARCHAR(255) NOT NULL,
	temperature DECIMAL(5,2) NOT NULL,
	date DATE NOT NULL,
	windSpeed DECIMAL(5,2) NOT NULL
);
*/
