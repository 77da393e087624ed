package gps

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"

	"github.com/localmart/storefront/internal/core/domain"
)

var errNoFix = errors.New("no valid GPS fix in stream")

// SerialLocator implements ports.DeviceLocator for an NMEA 0183 receiver on
// a serial port, as found on store kiosks.
type SerialLocator struct {
	port string
	baud int
	open func() (io.ReadCloser, error)
}

// NewSerialLocator creates a SerialLocator for the given port and baud rate.
func NewSerialLocator(port string, baud int) *SerialLocator {
	l := &SerialLocator{port: port, baud: baud}
	l.open = func() (io.ReadCloser, error) {
		return serial.OpenPort(&serial.Config{
			Name:        l.port,
			Baud:        l.baud,
			ReadTimeout: 500 * time.Millisecond,
		})
	}
	return l
}

// Locate opens the port and reads sentences until a GGA or RMC sentence
// reports a valid fix. The port is closed as soon as ctx is done.
func (l *SerialLocator) Locate(ctx context.Context) (domain.Coordinate, error) {
	port, err := l.open()
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: open %s: %w", domain.ErrLocationUnavailable, l.port, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer func() {
		if stop() {
			_ = port.Close()
		}
	}()

	c, err := scanFix(ctx, port, true)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %s: %w", domain.ErrLocationUnavailable, l.port, err)
	}
	return c, nil
}

// ReadFix returns the first valid fix found in r.
func ReadFix(ctx context.Context, r io.Reader) (domain.Coordinate, error) {
	return scanFix(ctx, r, false)
}

// scanFix reads lines from r until one carries a fix. With follow set, EOF
// means the read timed out and scanning continues.
func scanFix(ctx context.Context, r io.Reader, follow bool) (domain.Coordinate, error) {
	br := bufio.NewReader(r)
	var line strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return domain.Coordinate{}, err
		}

		chunk, err := br.ReadString('\n')
		line.WriteString(chunk)
		switch {
		case err == nil:
			if c, ok := parseFix(line.String()); ok {
				return c, nil
			}
			line.Reset()
		case errors.Is(err, io.EOF) && follow:
		case errors.Is(err, io.EOF):
			if c, ok := parseFix(line.String()); ok {
				return c, nil
			}
			return domain.Coordinate{}, errNoFix
		default:
			return domain.Coordinate{}, err
		}
	}
}

func parseFix(line string) (domain.Coordinate, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return domain.Coordinate{}, false
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		return domain.Coordinate{}, false
	}

	var c domain.Coordinate
	switch s := sentence.(type) {
	case nmea.GGA:
		if s.FixQuality == nmea.Invalid {
			return domain.Coordinate{}, false
		}
		c = domain.Coordinate{Lat: s.Latitude, Lon: s.Longitude}
	case nmea.RMC:
		if s.Validity != nmea.ValidRMC {
			return domain.Coordinate{}, false
		}
		c = domain.Coordinate{Lat: s.Latitude, Lon: s.Longitude}
	default:
		return domain.Coordinate{}, false
	}
	if c.Validate() != nil {
		return domain.Coordinate{}, false
	}
	return c, true
}
