// Command booking-sim fetches free slots from the gateway and books the first
// one, for local smoke-testing the booking flow end to end.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

func main() {
	var (
		baseURL   = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "gateway base url")
		branchID  = flag.String("branch-id", getenv("BRANCH_ID", ""), "branch id")
		bayID     = flag.String("bay-id", getenv("BAY_ID", ""), "bay id")
		serviceID = flag.String("service-id", getenv("SERVICE_ID", ""), "installation service id")
		date      = flag.String("date", getenv("BOOK_DATE", time.Now().UTC().Format("2006-01-02")), "booking date (YYYY-MM-DD)")
		name      = flag.String("name", getenv("CUSTOMER_NAME", "Test Customer"), "customer name")
		email     = flag.String("email", getenv("CUSTOMER_EMAIL", "customer@example.com"), "customer email")
		phone     = flag.String("phone", getenv("CUSTOMER_PHONE", ""), "customer phone")
		plate     = flag.String("plate", getenv("VEHICLE_PLATE", ""), "vehicle plate")
		locale    = flag.String("locale", getenv("LOCALE", "en"), "customer locale")
	)
	flag.Parse()

	if strings.TrimSpace(*branchID) == "" {
		fatal("BRANCH_ID is required")
	}
	if strings.TrimSpace(*bayID) == "" {
		fatal("BAY_ID is required")
	}
	if strings.TrimSpace(*serviceID) == "" {
		fatal("SERVICE_ID is required")
	}

	client := &http.Client{Timeout: 10 * time.Second}

	slotsURL := fmt.Sprintf("%s/api/v1/public/slots?%s", strings.TrimRight(*baseURL, "/"), url.Values{
		"branch_id":  {*branchID},
		"bay_id":     {*bayID},
		"service_id": {*serviceID},
		"date":       {*date},
	}.Encode())

	resp, err := client.Get(slotsURL)
	if err != nil {
		fatal(err.Error())
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fatal(fmt.Sprintf("slots request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var slotsResp struct {
		Slots []struct {
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		} `json:"slots"`
	}
	if err := json.Unmarshal(body, &slotsResp); err != nil {
		fatal("invalid slots response: " + err.Error())
	}
	if len(slotsResp.Slots) == 0 {
		fatal("no free slots on " + *date)
	}
	slot := slotsResp.Slots[0]
	fmt.Printf("booking slot %s\n", slot.StartTime)

	payload, err := json.Marshal(map[string]string{
		"branch_id":      *branchID,
		"bay_id":         *bayID,
		"service_id":     *serviceID,
		"start_time":     slot.StartTime,
		"customer_name":  *name,
		"customer_email": *email,
		"customer_phone": *phone,
		"vehicle_plate":  *plate,
		"locale":         *locale,
	})
	if err != nil {
		fatal(err.Error())
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(*baseURL, "/")+"/api/v1/public/book", bytes.NewReader(payload))
	if err != nil {
		fatal(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	bookResp, err := client.Do(req)
	if err != nil {
		fatal(err.Error())
	}
	bookBody, _ := io.ReadAll(bookResp.Body)
	_ = bookResp.Body.Close()

	fmt.Printf("status: %d\n%s\n", bookResp.StatusCode, strings.TrimSpace(string(bookBody)))
	if bookResp.StatusCode != http.StatusCreated {
		os.Exit(1)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}
