package fingerprint

import (
	"fmt"
	"strconv"
	"strings"

	fingerprintdomain "github.com/originwatch/originwatch/internal/domain/fingerprint"
)

// Project renders fp's canonical text projection: a fixed, line-
// oriented, key-prefixed serialisation used as the embedding model's
// input. Identical fingerprints (ignoring ID and Timestamp) yield a
// byte-identical projection.
func Project(fp fingerprintdomain.SessionFingerprint) string {
	var b strings.Builder

	writeLine(&b, "location", coordinateText(fp.Location))
	writeLine(&b, "accuracy", accuracyText(fp.Location))
	writeLine(&b, "vpn", vpnText(fp.Network))
	writeLine(&b, "platform", fp.Environment.Platform)
	writeLine(&b, "resolution", fp.Environment.Resolution)
	writeLine(&b, "gpu", fp.Environment.WebGLRenderer)
	writeLine(&b, "useragent", fp.Environment.UserAgent)
	writeLine(&b, "ips", strings.Join(fp.Network.ObservedIPs, ","))
	writeLine(&b, "risk", string(fp.Summary.OverallRisk))
	writeLine(&b, "scores", scoresText(fp.Summary))
	writeLine(&b, "indicators", strings.Join(fp.Summary.SpoofingIndicators, "|"))

	return b.String()
}

func writeLine(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func coordinateText(loc fingerprintdomain.LocationRecord) string {
	if loc.Latitude == nil || loc.Longitude == nil {
		return "unknown"
	}
	return strconv.FormatFloat(*loc.Latitude, 'f', 6, 64) + "," + strconv.FormatFloat(*loc.Longitude, 'f', 6, 64)
}

func accuracyText(loc fingerprintdomain.LocationRecord) string {
	if loc.AccuracyMeters == nil {
		return "unknown"
	}
	return strconv.FormatFloat(*loc.AccuracyMeters, 'f', 1, 64)
}

func vpnText(net fingerprintdomain.NetworkRecord) string {
	return fmt.Sprintf("%t:%d", net.IsVPN, net.VPNConfidence)
}

func scoresText(summary fingerprintdomain.Summary) string {
	return fmt.Sprintf("%d,%d", summary.LocationScore, summary.EnvironmentScore)
}
