package main

// Command-line entry point for a single end-of-line force-test cycle.

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"golang.org/x/term"

	"github.com/soochol/eol-force-tester/internal/facade"
	"github.com/soochol/eol-force-tester/internal/factory"
	"github.com/soochol/eol-force-tester/internal/logx"
	"github.com/soochol/eol-force-tester/internal/model"
	"github.com/soochol/eol-force-tester/internal/orchestrator"
)

var interactive = false

var simulate = false
var repeatCount = 1
var dutID = ""

func main() {
	os.Exit(submain())
}

func submain() int {
	log.SetFlags(log.Lmsgprefix | log.Ltime)
	log.SetPrefix("eoltester: ")

	flag.BoolVar(&simulate, "simulate", true, "use in-memory simulator backends instead of real hardware")
	flag.IntVar(&repeatCount, "repeat", 1, "number of measurement repeats per cycle")
	flag.StringVar(&dutID, "dut", "DUT-0001", "device-under-test identifier")
	flag.BoolVar(&interactive, "interactive", false, "scan the DUT identifier from a barcode reader before starting")
	flag.Parse()

	sink := logx.NewStdSink(os.Stdout, "eoltester: ")

	testCfg, hwCfg, dut := defaultConfig()
	if repeatCount > 0 {
		testCfg.RepeatCount = repeatCount
	}
	dut.DUTID = dutID
	if interactive {
		scanned, err := scanDUTID(os.Stdin)
		if err != nil {
			log.Printf("scanning DUT identifier: %v", err)
			return 2
		}
		if scanned != "" {
			dut.DUTID = scanned
		}
	}

	if err := testCfg.Validate(); err != nil {
		log.Printf("invalid test configuration: %v", err)
		return 2
	}
	if err := hwCfg.Validate(); err != nil {
		log.Printf("invalid hardware configuration: %v", err)
		return 2
	}
	if err := dut.Validate(); err != nil {
		log.Printf("invalid DUT info: %v", err)
		return 2
	}

	kind := factory.Hardware
	if simulate {
		kind = factory.Simulator
	}

	ioTimeout := time.Duration(testCfg.TimeoutSeconds) * time.Second

	robot, err := factory.Robot(kind, hwCfg)
	if err != nil {
		log.Printf("building robot backend: %v", err)
		return 2
	}
	mcu, err := factory.MCU(kind, hwCfg, sink, testCfg.RetryAttempts, ioTimeout)
	if err != nil {
		log.Printf("building MCU backend: %v", err)
		return 2
	}
	power, err := factory.Power(kind, hwCfg, ioTimeout)
	if err != nil {
		log.Printf("building power backend: %v", err)
		return 2
	}
	dio, err := factory.DIO(kind, hwCfg)
	if err != nil {
		log.Printf("building DIO backend: %v", err)
		return 2
	}
	loadcell, err := factory.Loadcell(kind, hwCfg, ioTimeout, func() float64 {
		pos, _ := robot.GetPosition(context.Background(), hwCfg.RobotAxis)
		return pos
	})
	if err != nil {
		log.Printf("building loadcell backend: %v", err)
		return 2
	}

	f := facade.New(robot, mcu, power, loadcell, dio, sink)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := f.ConnectAll(ctx); err != nil {
		log.Printf("connecting hardware: %v", err)
		return 2
	}
	defer f.Shutdown(context.Background())

	if err := f.InitializeHardware(ctx, testCfg, hwCfg); err != nil {
		log.Printf("initializing hardware: %v", err)
		return 2
	}

	progress := make(chan orchestrator.Progress, 32)
	go func() {
		for p := range progress {
			log.Printf("progress: %s/%s %s", p.Phase, p.Step, p.Extra)
		}
	}()

	orch := orchestrator.New(f, sink, progress)
	cycle := orch.ExecuteCycle(ctx, 1, testCfg, hwCfg, dut)
	close(progress)

	fmt.Printf("cycle %d: passed=%v duration=%s\n", cycle.CycleNumber, cycle.IsPassed, cycle.ExecutionDuration)
	if cycle.ErrorMessage != "" {
		fmt.Printf("error: %s\n", cycle.ErrorMessage)
	}
	if cycle.Measurements != nil {
		fmt.Println(cycle.Measurements)
	}

	if !cycle.IsPassed {
		return 1
	}
	return 0
}

// defaultConfig returns a reasonable illustrative configuration; a real
// deployment would load these from a file or environment instead.
func defaultConfig() (model.TestConfiguration, model.HardwareConfig, model.DUTCommandInfo) {
	testCfg := model.TestConfiguration{
		Voltage:           24.0,
		Current:           2.0,
		CurrentLimit:      3.0,
		UpperTemp:         80.0,
		ActivationTemp:    60.0,
		StandbyTemp:       25.0,
		FanSpeed:          5,
		TemperatureTol:    5.0,
		TemperatureList:   []float64{25.0, 40.0, 60.0},
		Velocity:          50.0,
		Acceleration:      200.0,
		Deceleration:      200.0,
		InitialPosition:   0.0,
		OperatingPosition: 100.0,
		StrokePositions:   []float64{10.0, 20.0, 30.0},

		PowerOnStabilization:         200 * time.Millisecond,
		PowerCommandStabilization:    100 * time.Millisecond,
		MCUBootCompleteStabilization: 500 * time.Millisecond,
		MCUCommandStabilization:      100 * time.Millisecond,
		RobotMoveStabilization:       200 * time.Millisecond,
		RobotStandbyStabilization:    500 * time.Millisecond,
		TeardownStabilization:        200 * time.Millisecond,

		RetryAttempts:  3,
		TimeoutSeconds: 60,
		RepeatCount:    1,

		PassCriteria: model.PassCriteria{
			ForceMin:       0.0,
			ForceMax:       200.0,
			TemperatureMin: -10.0,
			TemperatureMax: 100.0,
		},
	}

	hwCfg := model.HardwareConfig{
		RobotAxis: 0,

		LoadcellPort:        "/dev/ttyUSB0",
		LoadcellBaud:        9600,
		LoadcellParity:      "None",
		LoadcellStopBits:    1,
		LoadcellByteSize:    8,
		LoadcellIndicatorID: 1,

		MCUPort:     "/dev/ttyUSB1",
		MCUBaud:     115200,
		MCUParity:   "None",
		MCUStopBits: 1,
		MCUByteSize: 8,

		PowerHost:    "192.168.0.50",
		PowerPort:    5025,
		PowerChannel: 1,

		DIOInputModule:  0,
		DIOOutputModule: 0,

		PinBrakeRelease: 0,
		PinTowerRed:     1,
		PinTowerYellow:  2,
		PinTowerGreen:   3,
		PinBuzzer:       4,
	}

	dut := model.DUTCommandInfo{
		DUTID:        "DUT-0001",
		ModelNumber:  "EOL-ACT-100",
		SerialNumber: "SN000000",
		Manufacturer: "Soochol",
	}

	return testCfg, hwCfg, dut
}

// scanDUTID reads a barcode-scanner line without local echo duplication:
// most handheld scanners type the payload followed by Enter faster than
// a human, and with the terminal in raw mode we read exactly the bytes
// the scanner sends instead of relying on line discipline.
func scanDUTID(f *os.File) (string, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return "", fmt.Errorf("reading scanner input: %w", err)
		}
		if n == 0 {
			continue
		}
		if buf[0] == '\r' || buf[0] == '\n' {
			break
		}
		line = append(line, buf[0])
	}
	return string(line), nil
}
