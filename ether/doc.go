// Package ether provides the network sub-functions a composite gadget can
// pair with its main function: RNDIS, CDC ECM, and the CDC Ethernet subset.
//
// All network functions of a gadget share one [Link]. Set it up before any
// binder runs and clean it up once the configurations using it are gone:
//
//	link := ether.NewLink("usb0")
//	if err := link.Setup(gadget, nil); err != nil {
//	    return err
//	}
//	defer link.Cleanup()
//
// Binders add a function to a configuration during its bind:
//
//	binder := ether.BindSubset
//	if ether.CanSupportECM(gadget) {
//	    binder = ether.BindECM
//	}
//	err := binder(cfg, link.HostAddr())
//
// Only descriptors and string IDs are modeled. Frame transfer is out of
// scope.
package ether
