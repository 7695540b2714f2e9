package spi

import (
	"errors"
	"testing"
	"time"

	busbridge "github.com/ZaparooProject/go-busbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

var errPinFailed = errors.New("pin failed")

// event is one pin level change or transfer, in order.
type event struct {
	name  string
	data  []byte
	level gpio.Level
}

type recorder struct {
	events []event
}

// mockPin records its level changes.
type mockPin struct {
	rec   *recorder
	err   error
	name  string
	level gpio.Level
}

func (p *mockPin) Out(l gpio.Level) error {
	if p.err != nil {
		return p.err
	}
	p.level = l
	p.rec.events = append(p.rec.events, event{name: p.name, level: l})
	return nil
}

func (p *mockPin) String() string { return p.name }

// mockConn implements spi.Conn. MISO is MOSI plus one unless respond is set.
type mockConn struct {
	rec     *recorder
	err     error
	respond func(w, r []byte)
}

func (m *mockConn) String() string { return "mock-spi" }

func (*mockConn) Duplex() conn.Duplex { return conn.Full }

func (m *mockConn) Tx(w, r []byte) error {
	m.rec.events = append(m.rec.events, event{name: "tx", data: append([]byte(nil), w...)})
	if m.err != nil {
		return m.err
	}
	if m.respond != nil {
		m.respond(w, r)
		return nil
	}
	for i := range w {
		r[i] = w[i] + 1
	}
	return nil
}

func (*mockConn) TxPackets(_ []spi.Packet) error { return nil }

func newTestBus(t *testing.T) (*Bus, *recorder, map[busbridge.ChipSelect]*mockPin) {
	t.Helper()
	rec := &recorder{}
	pins := map[busbridge.ChipSelect]*mockPin{
		busbridge.ChipSelectEEPROM: {rec: rec, name: "GPIO8", level: gpio.Low},
		busbridge.ChipSelectDAC:    {rec: rec, name: "GPIO7", level: gpio.Low},
	}
	asPins := make(map[busbridge.ChipSelect]Pin, len(pins))
	for cs, p := range pins {
		asPins[cs] = p
	}
	b, err := NewWithConn(&mockConn{rec: rec}, asPins)
	require.NoError(t, err)
	rec.events = nil
	return b, rec, pins
}

func TestNewWithConn_ChipSelectsIdleHigh(t *testing.T) {
	t.Parallel()

	b, _, pins := newTestBus(t)
	for cs, p := range pins {
		assert.Equal(t, gpio.High, p.level, "chip select %s", cs)
	}
	assert.Equal(t, "mock-spi", b.String())
}

func TestNewWithConn_PinFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, err := NewWithConn(&mockConn{rec: rec}, map[busbridge.ChipSelect]Pin{
		busbridge.ChipSelectUSD: &mockPin{rec: rec, name: "GPIO25", err: errPinFailed},
	})
	require.ErrorIs(t, err, errPinFailed)
}

func TestBus_Transaction(t *testing.T) {
	t.Parallel()

	b, rec, pins := newTestBus(t)
	buf := []byte{0x01, 0xFF}

	require.NoError(t, b.Assert(busbridge.ChipSelectDAC))
	assert.Equal(t, gpio.Low, pins[busbridge.ChipSelectDAC].level)
	assert.Equal(t, gpio.High, pins[busbridge.ChipSelectEEPROM].level)

	require.NoError(t, b.Exchange(buf))
	require.NoError(t, b.Deassert(busbridge.ChipSelectDAC))

	assert.Equal(t, []byte{0x02, 0x00}, buf)
	assert.Equal(t, []event{
		{name: "GPIO7", level: gpio.Low},
		{name: "tx", data: []byte{0x01, 0xFF}},
		{name: "GPIO7", level: gpio.High},
	}, rec.events)
}

func TestBus_UnknownChipSelect(t *testing.T) {
	t.Parallel()

	b, _, _ := newTestBus(t)
	require.ErrorIs(t, b.Assert(busbridge.ChipSelectUSD), busbridge.ErrUnknownChipSelect)
	require.ErrorIs(t, b.Deassert(busbridge.ChipSelectUSD), busbridge.ErrUnknownChipSelect)
	assert.Equal(t, busbridge.OutcomeBusFault, busbridge.OutcomeOf(b.Assert(busbridge.ChipSelectUSD)))
}

func TestBus_ExchangeErrors(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := &mockConn{rec: rec, err: errors.New("ioctl failed")}
	b, err := NewWithConn(c, nil)
	require.NoError(t, err)

	buf := []byte{0xAA}
	err = b.Exchange(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPI transfer of 1 bytes failed")
	assert.Equal(t, []byte{0xAA}, buf, "buffer untouched on failure")

	require.NoError(t, b.Exchange(nil))
}

func TestBus_ExchangeReusesReceiveBuffer(t *testing.T) {
	t.Parallel()

	b, _, _ := newTestBus(t)
	require.NoError(t, b.Exchange(make([]byte, 8)))
	first := &b.rx[0]
	require.NoError(t, b.Exchange(make([]byte, 4)))
	assert.Same(t, first, &b.rx[0])
}

func TestBus_WithParser(t *testing.T) {
	t.Parallel()

	b, rec, _ := newTestBus(t)
	q := busbridge.NewTextQueue(busbridge.TextQueueSize)
	p := busbridge.NewParser(q, busbridge.WithSPIBus(b), busbridge.WithSleep(func(time.Duration) {}))

	res := p.Execute("spi eeprom 3 0 10")
	require.NoError(t, res.Err)
	assert.Equal(t, "> 04 01 11\r\n", res.Response())
	require.Len(t, rec.events, 3)

	res = p.Execute("spi usd 1")
	assert.Equal(t, busbridge.ResponseBusFault, res.Response())
}

func TestBus_Close(t *testing.T) {
	t.Parallel()

	b, _, pins := newTestBus(t)
	require.NoError(t, b.Assert(busbridge.ChipSelectEEPROM))
	require.NoError(t, b.Close())
	assert.Equal(t, gpio.High, pins[busbridge.ChipSelectEEPROM].level)

	pins[busbridge.ChipSelectDAC].err = errPinFailed
	require.ErrorIs(t, b.Close(), errPinFailed)
}
