// Package config loads the gadget configuration.
//
// Values come from, in increasing order of precedence: built-in defaults,
// an optional YAML file, an optional .env file and the environment
// (SOFTGADGET_ prefix), and command-line flags registered with
// [RegisterFlags]:
//
//	flags := pflag.NewFlagSet("softgadget", pflag.ExitOnError)
//	config.RegisterFlags(flags)
//	_ = flags.Parse(os.Args[1:])
//
//	cfg, err := config.Load(
//	    config.WithConfigFile("softgadget.yaml"),
//	    config.WithEnvFile(".env"),
//	    config.WithFlags(flags),
//	)
//
// Keys:
//
//	usb_class, usb_subclass, usb_protocol   device class triple (0..255)
//	usb_vendor, usb_product                 device IDs (default 0525:a4ac)
//	host_addr                               host-side MAC of network configs
//	configs                                 enabled configurations: rndis or ecm, generic
//	udc, device, descriptors                controller, FunctionFS device, descriptor file
//	log.level, log.format, log.file         logging
package config
