package triageService

import (
	"PanicButton/internal/entity"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	alertExcerptRunes    = 200
	advisoryExcerptRunes = 300
)

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// excerpt always ends with an ellipsis, the messages read as a quote.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + "..."
}

func formatCoordinates(c *entity.Coordinates, missing string) string {
	if c == nil {
		return missing
	}
	return fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
}

func fixed4(c *entity.Coordinates) (string, string) {
	if c == nil {
		return "N/A", "N/A"
	}
	return strconv.FormatFloat(c.Latitude, 'f', 4, 64), strconv.FormatFloat(c.Longitude, 'f', 4, 64)
}

func rawCoordinates(c *entity.Coordinates) (string, string) {
	if c == nil {
		return "N/A", "N/A"
	}
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64), strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

func urgencyLabel(inc entity.Incident) string {
	if a := inc.Assessment(); a != nil {
		return strconv.Itoa(a.UrgencyScore)
	}
	return "N/A"
}

func autoFireNotification(inc entity.Incident) string {
	lat, lng := fixed4(inc.LiveCoordinates)
	return "CRITICAL SITUATION DETECTED\n\n" +
		"Urgency Level: " + urgencyLabel(inc) + "/10\n\n" +
		"AUTOMATIC ACTIONS TRIGGERED:\n" +
		"- Initiating emergency call\n" +
		"- Saving and sending encounter data\n\n" +
		"Calling 911 with emergency information\n" +
		"Location: Latitude " + lat + ", Longitude " + lng
}

func callMessage(inc entity.Incident) string {
	lat, lng := fixed4(inc.LiveCoordinates)
	return "Calling 911 with location coordinates:\nLatitude: " + lat + "\nLongitude: " + lng
}

func alertMessage(inc entity.Incident) string {
	lat, lng := fixed4(inc.LiveCoordinates)
	return "EMERGENCY: I've activated my panic button. My location is:\n" +
		"Latitude: " + lat + "\nLongitude: " + lng + "\n\n" +
		"Analysis: " + excerpt(inc.Analysis, alertExcerptRunes)
}

func advisoryMessage(inc entity.Incident) string {
	lat, lng := fixed4(inc.LiveCoordinates)
	return "Location: Latitude " + lat + ", Longitude " + lng + "\n\n" +
		"Incident Analysis:\n" + excerpt(inc.Analysis, advisoryExcerptRunes)
}

func locationInfo(inc entity.Incident) string {
	if inc.LiveCoordinates == nil {
		return "Location not available"
	}
	lat, lng := rawCoordinates(inc.LiveCoordinates)
	return "Latitude: " + lat + "\nLongitude: " + lng
}

func emergencyMetadata(inc entity.Incident, at time.Time) string {
	lat, lng := rawCoordinates(inc.LiveCoordinates)
	var b strings.Builder
	b.WriteString("EMERGENCY INCIDENT REPORT\n\n")
	b.WriteString("Timestamp: " + at.UTC().Format("2006-01-02T15:04:05.000Z07:00") + "\n")
	b.WriteString("Urgency Level: " + urgencyLabel(inc) + "/10\n")
	b.WriteString("Location: Latitude " + lat + ", Longitude " + lng + "\n")
	b.WriteString("Automatic 911 Call Initiated: YES\n")
	return b.String()
}
