package setup

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/vadiminshakov/balancecheck/config"
	"github.com/vadiminshakov/balancecheck/internal/domain"
)

// DefaultPath file written by the wizard.
const DefaultPath = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

type answers struct {
	fiat      string
	exchanges []string
	imageHost string
	s3Bucket  string
	s3Region  string
	s3Prefix  string
	schedule  string
	smaPeriod string
}

func step(title string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("BALANCECHECK CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(title))
}

// RunTUI launches the terminal configuration wizard and writes the tunables
// to path. Credentials stay in the environment and are not asked for.
func RunTUI(path string) error {
	a := answers{
		fiat:      config.DefaultFiat,
		exchanges: append([]string(nil), config.AllExchanges...),
		imageHost: config.ImageHostImgur,
		smaPeriod: strconv.Itoa(config.DefaultSMAPeriod),
	}
	var confirm bool

	fmt.Print("\033[H\033[2J") // clear screen
	fmt.Println(headerStyle.Render("BALANCECHECK CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Every exchange, one number.\n"))

	fmt.Println(stepStyle.Render("STEP 1: CURRENCY"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Fiat currency").
				Description("ISO 4217 code balances are reported in (e.g. CAD, USD, EUR)").
				Value(&a.fiat).
				Validate(validateFiat),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 2: EXCHANGES")
	options := make([]huh.Option[string], 0, len(config.AllExchanges))
	for _, name := range config.AllExchanges {
		options = append(options, huh.NewOption(strings.ToUpper(name), name))
	}
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Exchanges to check").
				Description("Credentials are read from the environment").
				Options(options...).
				Value(&a.exchanges).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return errors.New("select at least one exchange")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 3: GRAPH HOSTING")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should the balance graph go?").
				Options(
					huh.NewOption("Imgur", config.ImageHostImgur),
					huh.NewOption("S3 bucket", config.ImageHostS3),
					huh.NewOption("Nowhere, keep it local", config.ImageHostNone),
				).
				Value(&a.imageHost),
		),
	).Run()
	if err != nil {
		return err
	}

	if a.imageHost == config.ImageHostS3 {
		step("STEP 3b: S3 BUCKET")
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Bucket").
					Value(&a.s3Bucket).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("bucket cannot be empty")
						}
						return nil
					}),
				huh.NewInput().
					Title("Region").
					Description("e.g. us-east-1").
					Value(&a.s3Region),
				huh.NewInput().
					Title("Key prefix").
					Description("Optional folder for graphs (e.g. balance/)").
					Value(&a.s3Prefix),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	step("STEP 4: TIMING")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Schedule").
				Description("Cron expression (e.g. 0 */6 * * *), empty runs once").
				Value(&a.schedule).
				Validate(validateSchedule),
			huh.NewInput().
				Title("Moving average period").
				Description("Points in the trend overlay, 0 disables it").
				Value(&a.smaPeriod).
				Validate(validateSMAPeriod),
		),
	).Run()
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Fiat: %s\nExchanges: %s\nGraph host: %s\nSchedule: %s\nMoving average: %s\n",
		strings.ToUpper(a.fiat), strings.Join(a.exchanges, ", "), a.imageHost, orOnce(a.schedule), a.smaPeriod,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return errors.New("setup cancelled by user")
	}

	f, err := a.file()
	if err != nil {
		return err
	}
	if err := config.WriteFile(path, f); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(
		fmt.Sprintf("\n✓ Configuration saved to %s\nRun: balancecheck run --config %s", path, path)))
	time.Sleep(500 * time.Millisecond) // small pause to read success message
	return nil
}

func (a answers) file() (config.File, error) {
	period, err := strconv.Atoi(strings.TrimSpace(a.smaPeriod))
	if err != nil {
		return config.File{}, errors.Wrapf(err, "moving average period %q", a.smaPeriod)
	}

	f := config.File{
		Fiat:      strings.ToUpper(strings.TrimSpace(a.fiat)),
		ImageHost: a.imageHost,
		Schedule:  strings.TrimSpace(a.schedule),
		SMAPeriod: &period,
	}
	// an empty list already means every exchange
	if len(a.exchanges) != len(config.AllExchanges) {
		f.Exchanges = a.exchanges
	}
	if a.imageHost == config.ImageHostS3 {
		f.S3Bucket = strings.TrimSpace(a.s3Bucket)
		f.S3Region = strings.TrimSpace(a.s3Region)
		f.S3Prefix = strings.TrimSpace(a.s3Prefix)
	}
	return f, nil
}

func orOnce(schedule string) string {
	if strings.TrimSpace(schedule) == "" {
		return "run once"
	}
	return schedule
}

func validateFiat(s string) error {
	if !domain.IsKnownFiat(strings.ToUpper(strings.TrimSpace(s))) {
		return errors.New("must be an ISO 4217 currency code")
	}
	return nil
}

func validateSchedule(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := cron.ParseStandard(s); err != nil {
		return errors.Wrap(err, "invalid cron expression")
	}
	return nil
}

func validateSMAPeriod(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a whole number")
	}
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}
