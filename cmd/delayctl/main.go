package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"flight-delay/internal/client"
	"flight-delay/internal/flights"
)

const usage = `Usage: delayctl [-url URL] [-timeout D] <command> [flags]

Commands:
  health                          check service health
  info                            show the served model
  predict -airline A -type T -month M
  predict -file flights.json      JSON array of {"OPERA","TIPOVUELO","MES"}
`

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Prediction service base URL")
		timeout = flag.Duration("timeout", 5*time.Second, "Request timeout")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(*baseURL, *timeout)
	ctx := context.Background()

	if err := run(ctx, c, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "delayctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "health":
		status, err := c.Health(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, status)
		return nil

	case "info":
		info, err := c.ModelInfo(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, info)

	case "predict":
		in, err := parseFlights(args)
		if err != nil {
			return err
		}
		labels, err := c.Predict(ctx, in)
		if err != nil {
			return err
		}
		return printJSON(out, flights.PredictResponse{Predict: labels})

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func parseFlights(args []string) ([]flights.FlightInput, error) {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	var (
		file       = fs.String("file", "", "JSON file with an array of flights")
		airline    = fs.String("airline", "", "Airline (OPERA)")
		flightType = fs.String("type", "", "Flight type (TIPOVUELO)")
		month      = fs.Int("month", 0, "Month (MES)")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return nil, err
		}
		var in []flights.FlightInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("parse %s: %w", *file, err)
		}
		return in, nil
	}

	if *airline == "" || *flightType == "" || *month == 0 {
		return nil, fmt.Errorf("predict needs -file or all of -airline, -type and -month")
	}
	return []flights.FlightInput{{Airline: *airline, FlightType: *flightType, Month: *month}}, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
