// Package ffs models the FunctionFS side of a gadget: user space mounts a
// function instance, supplies its descriptors, and later unmounts it.
//
// A [Provider] owns at most one [Instance]. Activation fires the ready
// callback; unmounting a ready instance fires the closed callback:
//
//	p := ffs.NewProvider()
//	p.SetOnReady(coordinator.OnReady)
//	p.SetOnClosed(coordinator.OnClosed)
//	_ = p.Init()
//
//	inst, _ := p.Mount("ffs0")
//	desc, _ := ffs.LoadDescriptors("function.yaml")
//	if err := inst.Activate(desc); err != nil {
//	    // the ready callback rejected the instance
//	}
//
// Descriptor files are YAML:
//
//	strings: ["Bulk Loopback"]
//	interfaces:
//	  - class: 255
//	    string: 1
//	    endpoints:
//	      - {address: 0x81, attributes: 2, max_packet_size: 512}
//	      - {address: 0x01, attributes: 2, max_packet_size: 512}
package ffs
