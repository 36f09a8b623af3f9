// Package catalog lists ready-made example requests to start from.
package catalog

import (
	"github.com/vedsharma/apiclient/internal/model"
)

// Category groups related example requests
type Category struct {
	Name        string
	Description string
	Requests    []model.Request
}

const jsonContentType = "application/json"

// Categories returns the example catalog. Each call builds fresh values,
// so callers may modify what they get.
func Categories() []Category {
	return []Category{
		{
			Name:        "Weather & Location",
			Description: "Real-world weather and geolocation APIs",
			Requests: []model.Request{
				example("openweather", "OpenWeather Current", model.MethodGet,
					"https://api.openweathermap.org/data/2.5/weather",
					"Get current weather data for a location",
					[]model.KeyValuePair{
						model.NewKeyValuePair("q", "London"),
						model.NewKeyValuePair("units", "metric"),
						model.NewKeyValuePair("appid", "demo"),
					}, nil, ""),
				example("ipapi", "IP Geolocation", model.MethodGet,
					"https://ipapi.co/json/",
					"Get location data from IP address",
					nil, nil, ""),
			},
		},
		{
			Name:        "Data Management",
			Description: "Test different HTTP methods with JSONPlaceholder",
			Requests: []model.Request{
				example("create-post", "Create Post", model.MethodPost,
					"https://jsonplaceholder.typicode.com/posts",
					"Create a new post entry",
					nil,
					[]model.KeyValuePair{model.NewKeyValuePair("Content-Type", jsonContentType)},
					"{\n  \"title\": \"New Post\",\n  \"body\": \"This is a test post\",\n  \"userId\": 1\n}"),
				example("update-post", "Update Post", model.MethodPut,
					"https://jsonplaceholder.typicode.com/posts/1",
					"Update an existing post",
					nil,
					[]model.KeyValuePair{model.NewKeyValuePair("Content-Type", jsonContentType)},
					"{\n  \"id\": 1,\n  \"title\": \"Updated Post\",\n  \"body\": \"This post has been updated\",\n  \"userId\": 1\n}"),
			},
		},
		{
			Name:        "Financial Data",
			Description: "APIs for financial and market data",
			Requests: []model.Request{
				example("exchange-rates", "Exchange Rates", model.MethodGet,
					"https://api.exchangerate-api.com/v4/latest/USD",
					"Get latest currency exchange rates",
					nil, nil, ""),
				example("crypto-prices", "Cryptocurrency Prices", model.MethodGet,
					"https://api.coingecko.com/api/v3/simple/price",
					"Get cryptocurrency prices",
					[]model.KeyValuePair{
						model.NewKeyValuePair("ids", "bitcoin,ethereum"),
						model.NewKeyValuePair("vs_currencies", "usd"),
					}, nil, ""),
			},
		},
	}
}

// Find returns the example with the given id
func Find(id string) (model.Request, bool) {
	for _, c := range Categories() {
		for _, req := range c.Requests {
			if req.ID == id {
				return req, true
			}
		}
	}
	return model.Request{}, false
}

func example(id, name, method, url, description string, params, headers []model.KeyValuePair, body string) model.Request {
	if params == nil {
		params = []model.KeyValuePair{}
	}
	if headers == nil {
		headers = []model.KeyValuePair{}
	}
	return model.Request{
		ID:          id,
		Name:        name,
		Method:      method,
		URL:         url,
		Description: description,
		Params:      params,
		Headers:     headers,
		Body:        body,
	}
}
