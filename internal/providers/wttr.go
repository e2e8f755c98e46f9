package providers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"voxd/internal/fault"
	"voxd/internal/intent"
	"voxd/internal/tools"
)

const DefaultWttrURL = "https://wttr.in/"

// Wttr reads current conditions from wttr.in's JSON format.
type Wttr struct {
	HTTP    *http.Client
	BaseURL string
}

func NewWttr(hc *http.Client) *Wttr {
	return &Wttr{HTTP: client(hc), BaseURL: DefaultWttrURL}
}

type wttrReport struct {
	CurrentCondition []struct {
		TempC         string `json:"temp_C"`
		TempF         string `json:"temp_F"`
		FeelsLikeC    string `json:"FeelsLikeC"`
		FeelsLikeF    string `json:"FeelsLikeF"`
		Humidity      string `json:"humidity"`
		WindspeedKmph string `json:"windspeedKmph"`
		WeatherDesc   []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}

func (w *Wttr) Current(ctx context.Context, location string) (tools.WeatherReading, error) {
	// An empty path makes wttr.in geolocate the caller.
	path := ""
	if location != intent.CurrentLocation {
		path = url.PathEscape(location)
	}

	var rep wttrReport
	if err := getJSON(ctx, w.HTTP, "wttr", w.BaseURL+path+"?format=j1", nil, &rep); err != nil {
		return tools.WeatherReading{}, err
	}
	if len(rep.CurrentCondition) == 0 {
		return tools.WeatherReading{}, fault.Provider("wttr", fault.KindBadResponse, errors.New("no current conditions"))
	}

	cc := rep.CurrentCondition[0]
	r := tools.WeatherReading{
		TempC:      atoi(cc.TempC),
		TempF:      atoi(cc.TempF),
		FeelsLikeC: atoi(cc.FeelsLikeC),
		FeelsLikeF: atoi(cc.FeelsLikeF),
		Humidity:   atoi(cc.Humidity),
		WindKmph:   atoi(cc.WindspeedKmph),
	}
	if len(cc.WeatherDesc) > 0 {
		r.Description = cc.WeatherDesc[0].Value
	}
	return r, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
