package composite

// mockFunction reserves a fixed number of interfaces on Bind.
type mockFunction struct {
	name       string
	interfaces int
	bindErr    error

	bound    int
	unbound  int
	firstID  uint8
	unbindFn func()
}

func (m *mockFunction) Name() string { return m.name }

func (m *mockFunction) Bind(c *Configuration) error {
	if m.bindErr != nil {
		return m.bindErr
	}
	for i := 0; i < m.interfaces; i++ {
		id, err := c.InterfaceID(m)
		if err != nil {
			return err
		}
		if i == 0 {
			m.firstID = id
		}
	}
	m.bound++
	return nil
}

func (m *mockFunction) Unbind(*Configuration) {
	m.unbound++
	if m.unbindFn != nil {
		m.unbindFn()
	}
}

func (m *mockFunction) AppendDescriptors(dst []byte) []byte {
	for i := 0; i < m.interfaces; i++ {
		var buf [InterfaceDescriptorSize]byte
		(&InterfaceDescriptor{
			InterfaceNumber: m.firstID + uint8(i),
			InterfaceClass:  ClassVendor,
		}).MarshalTo(buf[:])
		dst = append(dst, buf[:]...)
	}
	return dst
}

// mockDriver records the core's callbacks.
type mockDriver struct {
	desc    DeviceDescriptor
	bindFn  func(dev *Device) error
	binds   int
	unbinds int
	events  []string
}

func (m *mockDriver) Name() string { return "mock" }

func (m *mockDriver) Descriptor() *DeviceDescriptor { return &m.desc }

func (m *mockDriver) Bind(dev *Device) error {
	m.binds++
	m.events = append(m.events, "bind")
	if m.bindFn != nil {
		return m.bindFn(dev)
	}
	return nil
}

func (m *mockDriver) Unbind(dev *Device) error {
	m.unbinds++
	m.events = append(m.events, "unbind")
	return nil
}
