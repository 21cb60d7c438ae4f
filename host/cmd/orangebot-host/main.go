package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/abiosoft/ishell/v2"

	"orangebot/host/config"
	"orangebot/host/drive"
	"orangebot/host/link"
	"orangebot/host/logging"
	"orangebot/host/serial"
	"orangebot/host/web"
	"orangebot/protocol"
)

var (
	configPath = flag.String("config", "", "YAML config file (defaults apply when empty)")
	device     = flag.String("device", "", "Serial device path, overrides the config")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	_, logFile := logging.Setup(cfg.Log, "[host] ")
	defer logFile.Close()

	port, err := serial.Open(cfg.Serial)
	if err != nil {
		log.Fatalf("serial open failed: %v", err)
	}

	client := link.NewClient(port, cfg.Link.Encoders)
	defer client.Close()
	log.Printf("connected to board on %s", cfg.Serial.Device)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interval := time.Duration(cfg.Link.PollIntervalMs) * time.Millisecond
		if err := client.Run(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("link stopped: %v", err)
		}
	}()

	mixer := drive.NewMixer(cfg.Drive.Velocity, cfg.Drive.SteeringRatio)

	if cfg.Web.Listen != "" {
		interval := time.Duration(cfg.Web.StatusIntervalMs) * time.Millisecond
		server := web.NewServer(client, mixer, interval, log.Default())
		httpServer := &http.Server{Addr: cfg.Web.Listen, Handler: server.Handler()}
		go func() {
			log.Printf("remote drive listening on %s", cfg.Web.Listen)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("web server stopped: %v", err)
			}
		}()
		defer httpServer.Close()
	}

	shell := newShell(client, mixer)
	shell.Run()
	shell.Close()

	// Leave the platform stopped
	client.SetPower(0, 0)
	client.SendPower(0, 0)
}

func newShell(client *link.Client, mixer drive.Mixer) *ishell.Shell {
	shell := ishell.New()
	shell.Println("OrangeBot host shell")

	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "print the last known board status",
		Func: func(c *ishell.Context) {
			s := client.Status()
			c.Printf("signature: %s\n", s.Signature)
			c.Printf("mode:      %s\n", s.Mode)
			c.Printf("positions: %v\n", s.Positions)
			c.Printf("speeds:    %v\n", s.Speeds)
			c.Printf("power:     R%d L%d (board %v)\n", s.Right, s.Left, s.Powers)
			if s.LastError >= 0 {
				c.Printf("error:     ERR%d (%d total)\n", s.LastError, s.Errors)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "power",
		Help: "power <right> <left>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Println("usage: power <right> <left>")
				return
			}
			right, err1 := strconv.ParseInt(c.Args[0], 10, 16)
			left, err2 := strconv.ParseInt(c.Args[1], 10, 16)
			if err := errors.Join(err1, err2); err != nil {
				c.Err(err)
				return
			}
			client.SetPower(int16(right), int16(left))
			c.Printf("power set to R%d L%d\n", right, left)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "drive",
		Help: "drive <forward> <right>, both in [-1, 1]",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Println("usage: drive <forward> <right>")
				return
			}
			forward, err1 := strconv.ParseFloat(c.Args[0], 64)
			right, err2 := strconv.ParseFloat(c.Args[1], 64)
			if err := errors.Join(err1, err2); err != nil {
				c.Err(err)
				return
			}
			r, l := mixer.Mix(drive.Direction{Forward: forward, Right: right})
			client.SetPower(r, l)
			c.Printf("power set to R%d L%d\n", r, l)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "stop both wheels",
		Func: func(c *ishell.Context) {
			client.SetPower(0, 0)
			if err := client.SendPower(0, 0); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "sig",
		Help: "ask the board for its signature",
		Func: func(c *ishell.Context) {
			client.Transport().Reset()
			if err := client.RequestSignature(); err != nil {
				c.Err(err)
				return
			}
			resp, err := client.Await("signature", time.Second)
			if err != nil {
				c.Err(err)
				return
			}
			sig := resp.(protocol.SignatureReport)
			c.Printf("signature: %s (%d bytes)\n", sig.Signature, sig.Length)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "readback",
		Help: "ask the board for the power it applies",
		Func: func(c *ishell.Context) {
			client.Transport().Reset()
			if err := client.RequestPowerReadback(); err != nil {
				c.Err(err)
				return
			}
			if _, err := client.Await("platform_power", time.Second); err != nil {
				c.Err(err)
				return
			}
			c.Printf("board power: %v\n", client.Status().Powers)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "ping",
		Help: "keep the link alive without other traffic",
		Func: func(c *ishell.Context) {
			if err := client.Ping(); err != nil {
				c.Err(err)
			}
		},
	})

	return shell
}
