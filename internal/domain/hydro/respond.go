package hydro

import (
	"fmt"
	"strings"

	"github.com/yanqian/hydro-agent/internal/domain/station"
)

func (s *service) damResponse(query string, target station.Record, reading DamReading, paired *WaterLevelReading) IntegratedResponse {
	capInfo, capOK := s.resolver.ref.Dam(reading.Code)
	ratio := StorageRatio(reading.Storage, capInfo, capOK)
	watershed, related := s.resolver.RelatedDams(reading.Code)

	answer := fmt.Sprintf("%s의 현재 수위는 %.2f%s입니다.", reading.Name, reading.WaterLevel, reading.Unit)
	if ratio != nil {
		answer += fmt.Sprintf(" 저수율은 약 %.1f%%입니다.", *ratio)
	}

	parts := []string{reading.Analysis.Message}
	if reading.Inflow != nil {
		parts = append(parts, fmt.Sprintf("유입량 %.1f%s", *reading.Inflow, UnitFlow))
	}
	if reading.Outflow != nil {
		parts = append(parts, fmt.Sprintf("방류량 %.1f%s", *reading.Outflow, UnitFlow))
	}
	if paired != nil {
		parts = append(parts, fmt.Sprintf("하류 수위표(%s) %.2f%s", paired.Name, paired.Level, paired.Unit))
	}

	var relatedStations []StationRef
	if paired != nil {
		relatedStations = append(relatedStations, StationRef{Code: paired.Code, Name: paired.Name, Kind: station.KindWaterLevel})
	}

	return IntegratedResponse{
		Status:       ResponseSuccess,
		Summary:      strings.Join(parts, " · "),
		DirectAnswer: answer,
		PrimaryStation: &StationRef{
			Code:     reading.Code,
			Name:     reading.Name,
			Kind:     station.KindDam,
			Location: target.Location,
		},
		RelatedStations: relatedStations,
		DetailedData: &DetailedData{
			Dam:               &reading,
			WaterLevelStation: paired,
			StorageRatio:      ratio,
			Watershed:         watershed,
			RelatedDams:       related,
		},
		Query:     query,
		Timestamp: s.now(),
	}
}

func (s *service) waterLevelResponse(query string, target station.Record, reading WaterLevelReading) IntegratedResponse {
	answer := fmt.Sprintf("%s 관측소의 현재 수위는 %.2f%s입니다.", reading.Name, reading.Level, reading.Unit)
	summary := answer
	if reading.Flow != nil {
		summary += fmt.Sprintf(" 유량은 %.1f%s입니다.", *reading.Flow, UnitFlow)
	}
	return IntegratedResponse{
		Status:       ResponseSuccess,
		Summary:      summary,
		DirectAnswer: answer,
		PrimaryStation: &StationRef{
			Code:     reading.Code,
			Name:     reading.Name,
			Kind:     station.KindWaterLevel,
			Location: target.Location,
		},
		DetailedData: &DetailedData{WaterLevelStation: &reading},
		Query:        query,
		Timestamp:    s.now(),
	}
}

func (s *service) rainfallResponse(query string, target station.Record, reading RainfallReading) IntegratedResponse {
	answer := fmt.Sprintf("%s 관측소의 최근 강우량은 %.1f%s입니다.", reading.Name, reading.Rainfall, reading.Unit)
	return IntegratedResponse{
		Status:       ResponseSuccess,
		Summary:      answer,
		DirectAnswer: answer,
		PrimaryStation: &StationRef{
			Code:     reading.Code,
			Name:     reading.Name,
			Kind:     station.KindRainfall,
			Location: target.Location,
		},
		DetailedData: &DetailedData{Rainfall: &reading},
		Query:        query,
		Timestamp:    s.now(),
	}
}
